package main

import (
	"github.com/movementfi/moveyield/memory"
	"github.com/movementfi/moveyield/memory/store/chromem"
)

// newMemoryManager wires the vector store with the build's embedder.
// The returned func releases embedder resources on shutdown.
func newMemoryManager() (memory.Manager, func(), error) {
	store, err := chromem.New()
	if err != nil {
		return nil, nil, err
	}

	embedder, closeEmbedder, err := newEmbedder()
	if err != nil {
		return nil, nil, err
	}

	mgr := memory.NewSimpleManager(store, embedder, &memory.Config{
		Enabled:       true,
		MinSimilarity: 0.3,
	})
	return mgr, closeEmbedder, nil
}
