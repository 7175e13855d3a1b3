package chat

import (
	"io"
	"strings"
	"time"

	"github.com/edgellm/ggufchat/internal/llm"
)

// Collector assembles a streamed generation into its final text while
// passing each delta through to Sink as it arrives, so the terminal (or an
// SSE writer) shows tokens the moment the binding emits them.
type Collector struct {
	// Sink receives every text delta immediately. Nil discards them.
	Sink io.Writer
}

// Result is the outcome of draining one generation stream.
type Result struct {
	// Text is the concatenation of every delta, in arrival order.
	Text string
	// FirstToken is the arrival time of the first non-empty delta. Only
	// meaningful when SawToken is true.
	FirstToken time.Time
	// SawToken is false when the stream ended without any content chunk,
	// e.g. an immediate stop condition.
	SawToken bool
	// Err is the first error chunk observed, if any.
	Err error
}

// Collect drains the chunk stream to completion. The channel is finite (the
// binding closes it on stop condition or token budget) and Collect always
// consumes it fully, even after an error chunk.
func (c Collector) Collect(chunks <-chan llm.Chunk) Result {
	var b strings.Builder
	res := Result{}

	for chunk := range chunks {
		if chunk.Err != nil && res.Err == nil {
			res.Err = chunk.Err
		}
		if chunk.Delta == "" {
			continue
		}
		if !res.SawToken {
			res.SawToken = true
			res.FirstToken = time.Now()
		}
		b.WriteString(chunk.Delta)
		if c.Sink != nil {
			io.WriteString(c.Sink, chunk.Delta)
		}
	}

	res.Text = b.String()
	return res
}
