package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validManifest() *Manifest {
	return &Manifest{
		Version: Version,
		NCores:  2,
		Params: RunParams{
			BoxSize:      125.0,
			PartMass:     0.00311,
			VolumeFactor: 1.0,
			Hubble:       0.678,
			OmegaM:       0.308,
			OmegaLambda:  0.692,
		},
		Units: Units{
			Mass:     "1e10 Msun",
			Length:   "Mpc",
			Velocity: "km/s",
			Time:     "Myr",
		},
		Snapshots: []Snapshot{
			{Snapshot: 0, Redshift: 12.5, LTTime: 13300, NGalaxies: 3, CoreCounts: []int64{2, 1}},
			{Snapshot: 1, Redshift: 10.1, LTTime: 13150, NGalaxies: 5, CoreCounts: []int64{3, 2}},
			{Snapshot: 2, Redshift: 8.2, LTTime: 13000, NGalaxies: 4, CoreCounts: []int64{4, 0}},
		},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	m := validManifest()
	data, err := m.Encode()
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Manifest)
	}{
		{"bad version", func(m *Manifest) { m.Version = 99 }},
		{"zero cores", func(m *Manifest) { m.NCores = 0 }},
		{"no snapshots", func(m *Manifest) { m.Snapshots = nil }},
		{"gap in snapshots", func(m *Manifest) { m.Snapshots[1].Snapshot = 3 }},
		{"wrong core count length", func(m *Manifest) { m.Snapshots[0].CoreCounts = []int64{3} }},
		{"negative core count", func(m *Manifest) {
			m.Snapshots[2].CoreCounts = []int64{5, -1}
		}},
		{"sum mismatch", func(m *Manifest) { m.Snapshots[1].NGalaxies = 99 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := validManifest()
			tc.mutate(m)
			require.ErrorIs(t, m.Validate(), ErrInvalid)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("{not yaml: ["))
	require.Error(t, err)
}

func TestSegmentName(t *testing.T) {
	require.Equal(t, "snap_007/core_3.seg", SegmentName(7, 3))
	require.Equal(t, "snap_116/core_0.seg", SegmentName(116, 0))
}
