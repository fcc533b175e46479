// Package manifest defines the catalog manifest document: the snapshot
// list, per-partition record counts, run parameters and unit strings that
// describe a partitioned galaxy catalog. The document is stored as
// catalog.yaml at the catalog root.
package manifest

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// FileName is the manifest's name within a catalog directory.
const FileName = "catalog.yaml"

// Version is the current manifest format version.
const Version = 1

// ErrInvalid is returned when a manifest document fails validation.
var ErrInvalid = errors.New("manifest: invalid manifest")

// RunParams are the simulation run parameters the reader needs. Hubble is
// the dimensionless little-h value; VolumeFactor scales BoxSize^3 for runs
// that sample a sub-volume.
type RunParams struct {
	BoxSize      float64 `yaml:"box_size"`
	PartMass     float64 `yaml:"part_mass"`
	VolumeFactor float64 `yaml:"volume_factor"`
	Hubble       float64 `yaml:"hubble"`
	OmegaM       float64 `yaml:"omega_m"`
	OmegaLambda  float64 `yaml:"omega_lambda"`
}

// Units maps quantity groups to unit strings, informational only.
type Units struct {
	Mass     string `yaml:"mass"`
	Length   string `yaml:"length"`
	Velocity string `yaml:"velocity"`
	Time     string `yaml:"time"`
}

// Snapshot describes one snapshot of the catalog. CoreCounts holds the
// record count of each partition in partition order; their sum must equal
// NGalaxies.
type Snapshot struct {
	Snapshot   int     `yaml:"snapshot"`
	Redshift   float64 `yaml:"redshift"`
	LTTime     float64 `yaml:"lt_time"`
	NGalaxies  int64   `yaml:"n_galaxies"`
	CoreCounts []int64 `yaml:"core_counts"`
}

// Manifest is the catalog manifest document.
type Manifest struct {
	Version   int        `yaml:"version"`
	NCores    int        `yaml:"n_cores"`
	Params    RunParams  `yaml:"params"`
	Units     Units      `yaml:"units"`
	Snapshots []Snapshot `yaml:"snapshots"`
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode serializes the manifest after validating it.
func (m *Manifest) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	return data, nil
}

// Validate checks internal consistency: a known version, at least one
// partition, contiguous snapshot numbering from 0, and per-snapshot
// partition counts that match NCores and sum to NGalaxies.
func (m *Manifest) Validate() error {
	if m.Version != Version {
		return fmt.Errorf("%w: version %d, want %d", ErrInvalid, m.Version, Version)
	}
	if m.NCores < 1 {
		return fmt.Errorf("%w: n_cores %d", ErrInvalid, m.NCores)
	}
	if len(m.Snapshots) == 0 {
		return fmt.Errorf("%w: no snapshots", ErrInvalid)
	}
	for i, s := range m.Snapshots {
		if s.Snapshot != i {
			return fmt.Errorf("%w: snapshot %d listed at position %d", ErrInvalid, s.Snapshot, i)
		}
		if len(s.CoreCounts) != m.NCores {
			return fmt.Errorf("%w: snapshot %d has %d core counts, want %d", ErrInvalid, i, len(s.CoreCounts), m.NCores)
		}
		var sum int64
		for core, n := range s.CoreCounts {
			if n < 0 {
				return fmt.Errorf("%w: snapshot %d core %d has negative count %d", ErrInvalid, i, core, n)
			}
			sum += n
		}
		if sum != s.NGalaxies {
			return fmt.Errorf("%w: snapshot %d core counts sum to %d, n_galaxies is %d", ErrInvalid, i, sum, s.NGalaxies)
		}
	}
	return nil
}

// SegmentName returns the blob name of one partition's segment.
func SegmentName(snapshot, core int) string {
	return fmt.Sprintf("snap_%03d/core_%d.seg", snapshot, core)
}
