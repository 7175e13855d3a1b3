package llm

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	llama "github.com/go-skynet/go-llama.cpp"

	"github.com/edgellm/ggufchat/internal/spinner"
)

// llamaRunner adapts a go-llama.cpp model handle to the Runner interface.
// The handle is not safe for concurrent generations; callers serialize.
type llamaRunner struct {
	model   *llama.LLama
	path    string
	threads int
}

// Load opens a GGUF model through the binding. The path must exist; load
// failures from the binding are wrapped and returned, never raised.
func Load(path string, opts Options) (Runner, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	model, err := llama.New(path,
		llama.SetContext(opts.CtxSize),
		llama.SetGPULayers(opts.GPULayers),
		llama.SetMMap(true),
	)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}

	return &llamaRunner{model: model, path: path, threads: threads}, nil
}

// LoadWithProgress is Load with a terminal spinner running for the duration
// of the native load. The spinner is joined before this returns.
func LoadWithProgress(path string, opts Options, out io.Writer) (Runner, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}

	sp := spinner.New(out, fmt.Sprintf("Loading model: %s...", filepath.Base(path)), 0)
	sp.Start()
	r, err := Load(path, opts)
	sp.Stop()
	return r, err
}

func (r *llamaRunner) Predict(ctx context.Context, prompt string, maxTokens int) (string, error) {
	text, err := r.model.Predict(prompt,
		llama.SetTokens(maxTokens),
		llama.SetThreads(r.threads),
	)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return text, nil
}

func (r *llamaRunner) PredictStream(ctx context.Context, prompt string, maxTokens int) (<-chan Chunk, error) {
	ch := make(chan Chunk, 64)

	go func() {
		defer close(ch)
		_, err := r.model.Predict(prompt,
			llama.SetTokens(maxTokens),
			llama.SetThreads(r.threads),
			llama.SetTokenCallback(func(token string) bool {
				select {
				case ch <- Chunk{Delta: token}:
					return true
				case <-ctx.Done():
					// Stop generating; the terminal chunk still follows.
					return false
				}
			}),
		)
		if err != nil {
			ch <- Chunk{Final: true, Err: fmt.Errorf("generation failed: %w", err)}
			return
		}
		ch <- Chunk{Final: true}
	}()

	return ch, nil
}

func (r *llamaRunner) CountTokens(text string) (int, error) {
	n, _, err := r.model.TokenizeString(text)
	if err != nil {
		return 0, fmt.Errorf("tokenize: %w", err)
	}
	// The binding does not prepend BOS for plain tokenization; account for
	// it here so prompt budgets match what generation actually consumes.
	return int(n) + 1, nil
}

func (r *llamaRunner) ModelPath() string { return r.path }

func (r *llamaRunner) Close() {
	r.model.Free()
}
