//go:build onnx

package main

import (
	"os"

	"github.com/movementfi/moveyield/memory"
	"github.com/movementfi/moveyield/memory/embedder/onnx"
)

// onnx builds embed with all-MiniLM-L6-v2. Model and tokenizer paths
// can be overridden with ONNX_MODEL_PATH and ONNX_TOKENIZER_PATH.
func newEmbedder() (memory.Embedder, func(), error) {
	embedder, err := onnx.New(onnx.Config{
		ModelPath:     pathOr("ONNX_MODEL_PATH", "models/all-MiniLM-L6-v2/model.onnx"),
		TokenizerPath: pathOr("ONNX_TOKENIZER_PATH", "models/all-MiniLM-L6-v2/tokenizer.json"),
		Dimensions:    384,
	})
	if err != nil {
		return nil, nil, err
	}
	return embedder, func() { _ = embedder.Close() }, nil
}

func pathOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
