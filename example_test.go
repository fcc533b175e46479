package galago_test

import (
	"context"
	"fmt"
	"log"

	"github.com/dragonsim/galago"
	"github.com/dragonsim/galago/blobstore"
	"github.com/dragonsim/galago/manifest"
	"github.com/dragonsim/galago/model"
	"github.com/dragonsim/galago/segment"
)

// Example builds a tiny single-core catalog in memory and traces a galaxy
// that merges into another lineage one snapshot after it starts.
func Example() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w := galago.NewCatalogWriter(store, 1,
		manifest.RunParams{BoxSize: 125, Hubble: 0.7, VolumeFactor: 1},
		manifest.Units{Mass: "1e10 Msun/h", Length: "Mpc/h"},
	)

	// Snapshot 0: two galaxies that both descend to the single galaxy at
	// snapshot 1, whose primary progenitor is galaxy 1.
	err := w.AddSnapshot(ctx, 8.0, 13000, []*segment.PartitionData{{
		Galaxies:        []model.Galaxy{{ID: 10}, {ID: 11}},
		FirstProgenitor: []int32{-1, -1},
		NextProgenitor:  []int32{-1, -1},
		Descendant:      []int32{0, 0},
	}})
	if err != nil {
		log.Fatal(err)
	}
	err = w.AddSnapshot(ctx, 5.0, 12500, []*segment.PartitionData{{
		Galaxies:        []model.Galaxy{{ID: 20}},
		FirstProgenitor: []int32{1},
		NextProgenitor:  []int32{-1},
		Descendant:      []int32{0},
	}})
	if err != nil {
		log.Fatal(err)
	}
	err = w.AddSnapshot(ctx, 2.0, 10000, []*segment.PartitionData{{
		Galaxies:        []model.Galaxy{{ID: 30}},
		FirstProgenitor: []int32{0},
		NextProgenitor:  []int32{-1},
		Descendant:      []int32{-1},
	}})
	if err != nil {
		log.Fatal(err)
	}
	if err := w.Commit(ctx); err != nil {
		log.Fatal(err)
	}

	cat, err := galago.Open(ctx, store)
	if err != nil {
		log.Fatal(err)
	}
	defer cat.Close()

	history, err := cat.GalaxyHistoryByID(ctx, 10, 0, 2)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("snapshots populated:", history.PopulatedCount())
	fmt.Println("merged at snapshot:", history.MergedSnapshot)
	// Output:
	// snapshots populated: 3
	// merged at snapshot: 1
}
