package model

import (
	"encoding/binary"
	"fmt"
)

// RecordSize is the wire size of one encoded Galaxy in bytes.
// All fields are little-endian and fixed-width; there is no padding.
const RecordSize = 120

// Galaxy is a single galaxy record at one snapshot.
//
// CentralGal is a global index into the same snapshot's concatenated record
// space once the per-partition offset has been applied by the reader; as
// stored on disk it is local to the partition that wrote it.
type Galaxy struct {
	ID         int64
	Type       int32
	CentralGal int32
	GhostFlag  int32
	Len        int32

	Pos  [3]float32
	Vel  [3]float32
	Spin float32

	Mvir    float32
	Rvir    float32
	Vvir    float32
	Vmax    float32
	FOFMvir float32

	HotGas        float32
	MetalsHotGas  float32
	ColdGas       float32
	MetalsColdGas float32
	Mcool         float32

	StellarMass      float32
	GrossStellarMass float32
	Sfr              float32
	BlackHoleMass    float32
	DiskScaleLength  float32

	MergTime float32
	CosInc   float32
}

// EncodeGalaxies encodes records into a contiguous little-endian byte slice.
func EncodeGalaxies(gals []Galaxy) ([]byte, error) {
	buf := make([]byte, len(gals)*RecordSize)
	if _, err := binary.Encode(buf, binary.LittleEndian, gals); err != nil {
		return nil, fmt.Errorf("model: encode galaxies: %w", err)
	}
	return buf, nil
}

// DecodeGalaxies decodes count records from raw.
// raw must hold at least count*RecordSize bytes.
func DecodeGalaxies(raw []byte, count int) ([]Galaxy, error) {
	if count < 0 {
		return nil, fmt.Errorf("model: negative record count %d", count)
	}
	if len(raw) < count*RecordSize {
		return nil, fmt.Errorf("model: record section truncated: have %d bytes, want %d", len(raw), count*RecordSize)
	}
	gals := make([]Galaxy, count)
	if _, err := binary.Decode(raw[:count*RecordSize], binary.LittleEndian, gals); err != nil {
		return nil, fmt.Errorf("model: decode galaxies: %w", err)
	}
	return gals, nil
}

// DecodeGalaxy decodes a single record starting at raw.
func DecodeGalaxy(raw []byte) (Galaxy, error) {
	var g Galaxy
	if len(raw) < RecordSize {
		return g, fmt.Errorf("model: record truncated: have %d bytes, want %d", len(raw), RecordSize)
	}
	if _, err := binary.Decode(raw[:RecordSize], binary.LittleEndian, &g); err != nil {
		return g, fmt.Errorf("model: decode galaxy: %w", err)
	}
	return g, nil
}
