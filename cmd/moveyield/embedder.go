//go:build !onnx

package main

import (
	"github.com/movementfi/moveyield/memory"
	"github.com/movementfi/moveyield/memory/embedder/mock"
)

// Default builds embed with the deterministic mock, which needs no
// model files. Build with the onnx tag for real semantic retrieval.
func newEmbedder() (memory.Embedder, func(), error) {
	return mock.New(), func() {}, nil
}
