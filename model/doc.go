// Package model defines the galaxy record type shared across the catalog
// reader, the merger-tree layer and the statistics helpers, together with
// its fixed binary wire layout and the Hubble-constant scaling rules.
package model
