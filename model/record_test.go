package model

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordSizeMatchesWireLayout(t *testing.T) {
	require.Equal(t, RecordSize, binary.Size(Galaxy{}))
}

func TestEncodeDecodeGalaxies(t *testing.T) {
	gals := []Galaxy{
		{
			ID:          42,
			Type:        1,
			CentralGal:  7,
			Len:         120,
			Pos:         [3]float32{1.5, 2.5, 3.5},
			Vel:         [3]float32{-10, 20, -30},
			Mvir:        12.5,
			StellarMass: 0.25,
			Sfr:         1.75,
			MergTime:    0.5,
		},
		{ID: 43, CentralGal: 0, GhostFlag: 1},
	}

	raw, err := EncodeGalaxies(gals)
	require.NoError(t, err)
	require.Len(t, raw, 2*RecordSize)

	got, err := DecodeGalaxies(raw, 2)
	require.NoError(t, err)
	require.Equal(t, gals, got)

	single, err := DecodeGalaxy(raw[RecordSize:])
	require.NoError(t, err)
	require.Equal(t, gals[1], single)
}

func TestDecodeGalaxiesTruncated(t *testing.T) {
	raw := make([]byte, RecordSize-1)
	_, err := DecodeGalaxies(raw, 1)
	require.Error(t, err)

	_, err = DecodeGalaxy(raw)
	require.Error(t, err)
}

func TestScaleLittleH(t *testing.T) {
	g := Galaxy{
		ID:          1,
		Pos:         [3]float32{2, 4, 6},
		Vel:         [3]float32{100, 200, 300},
		Mvir:        10,
		Rvir:        0.5,
		Vmax:        250,
		StellarMass: 3,
		Sfr:         7,
		MergTime:    1,
	}

	scaled := ScaleLittleH(g, 0.5)

	// 1/h fields double at h=0.5.
	require.Equal(t, [3]float32{4, 8, 12}, scaled.Pos)
	require.Equal(t, float32(20), scaled.Mvir)
	require.Equal(t, float32(1), scaled.Rvir)
	require.Equal(t, float32(6), scaled.StellarMass)
	require.Equal(t, float32(2), scaled.MergTime)

	// h-free fields are untouched.
	require.Equal(t, g.Vel, scaled.Vel)
	require.Equal(t, g.Vmax, scaled.Vmax)
	require.Equal(t, g.Sfr, scaled.Sfr)
	require.Equal(t, g.ID, scaled.ID)

	// h == 1 is a no-op.
	require.Equal(t, g, ScaleLittleH(g, 1))
}
