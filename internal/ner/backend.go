package ner

import (
	"context"
)

// TokenClassifier defines a pluggable backend for token-classification
// inference. Implementations may use ONNX Runtime or other engines.
type TokenClassifier interface {
	// Classify runs one inference over equally sized windows and returns the
	// argmax label id for every token position.
	Classify(ctx context.Context, batch []Window) ([][]int, error)
	// IsReady returns whether the backend is initialized and ready.
	IsReady() bool
	// Close releases any native resources.
	Close() error
}

// NewTokenClassifier creates a backend if supported by the current build.
// The default (no build tags) returns nil to avoid CGO dependencies.
// Implementations live in backend_onnx.go and backend_stub.go.
