// Package llm wraps the go-llama.cpp inference binding behind a small
// interface. Model loading, tokenization, GPU offload and sampling all live
// in the binding; this package only adapts its callback-driven streaming to
// channels and its token counts to the accounting the front-ends need.
package llm

import (
	"context"
	"errors"
)

// ErrModelNotFound reports that the resolved model path does not exist on
// disk. Callers abort with a non-zero exit rather than invoking the binding.
var ErrModelNotFound = errors.New("model file not found")

// Options configures model loading.
type Options struct {
	// CtxSize is the context window, in tokens.
	CtxSize int
	// GPULayers is the number of layers offloaded to the GPU; -1 offloads
	// all of them, 0 forces CPU-only.
	GPULayers int
	// Threads used for generation. Zero selects the CPU count.
	Threads int
}

// Chunk is one element of an incremental generation stream. A Chunk may
// carry a text delta, a terminal marker, or an error; the producer closes
// the channel after the terminal chunk, so a stream is always finite.
type Chunk struct {
	Delta string
	Final bool
	Err   error
}

// Runner is the surface the CLIs and the web server generate against.
type Runner interface {
	// Predict runs a whole-call generation and returns the full text.
	Predict(ctx context.Context, prompt string, maxTokens int) (string, error)

	// PredictStream starts a generation and returns a channel of
	// incremental chunks. The channel is closed when generation stops on
	// its stop condition or token budget; the caller must drain it.
	PredictStream(ctx context.Context, prompt string, maxTokens int) (<-chan Chunk, error)

	// CountTokens returns the number of tokens the model assigns to text,
	// with one beginning-of-sequence marker included.
	CountTokens(text string) (int, error)

	// ModelPath is the path the model was loaded from.
	ModelPath() string

	// Close releases the native model handle.
	Close()
}
