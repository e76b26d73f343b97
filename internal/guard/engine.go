// Package guard is the L2 layer: the multi-head ONNX classifier that turns
// text into five per-head probability distributions. The voting core only
// ever sees the HeadOutput contract; everything model-shaped stays here.
package guard

import (
	"context"

	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// Engine produces exactly one HeadOutput per known head for each call, or
// an error. Implementations must be safe for concurrent scans.
type Engine interface {
	Infer(ctx context.Context, text string) ([]schema.HeadOutput, error)
	Degraded() bool
	Status() Status
}

// Status describes the loaded model.
type Status struct {
	ModelID      string `json:"model_id"`
	ModelVersion string `json:"model_version"`
	Degraded     bool   `json:"degraded"`
}
