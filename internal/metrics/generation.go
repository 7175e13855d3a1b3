// Package metrics derives per-generation performance numbers from timestamps
// and token counts, and exports aggregate Prometheus series.
package metrics

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// UndefinedTTFT is the sentinel rendered when no content chunk was ever
// received before generation ended.
const UndefinedTTFT = -1

// Report holds the derived numbers for a single completed generation. It is
// transient: computed, displayed or returned, then discarded.
type Report struct {
	PromptTokens     int
	CompletionTokens int
	TTFTMillis       float64
	WallTimeSeconds  float64
	TokensPerSecond  float64
}

// FromStream derives a report for a streamed generation. firstToken is only
// consulted when sawToken is true.
//
// Throughput excludes the first token: (n-1) tokens over the interval from
// first token to end measures steady-state generation speed, not prompt
// latency. With one token or none there is no interval to measure, so the
// rate is reported as zero rather than dividing by a near-zero elapsed time.
func FromStream(start, firstToken, end time.Time, sawToken bool, promptTokens, completionTokens int) Report {
	r := Report{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TTFTMillis:       UndefinedTTFT,
		WallTimeSeconds:  end.Sub(start).Seconds(),
	}

	if sawToken {
		r.TTFTMillis = float64(firstToken.Sub(start)) / float64(time.Millisecond)
	}
	if sawToken && completionTokens > 1 {
		window := end.Sub(firstToken).Seconds()
		if window > 0 {
			r.TokensPerSecond = float64(completionTokens-1) / window
		}
	}
	return r
}

// FromWholeCall derives a report for a single-shot (non-streamed) generation,
// where no first-token split exists: throughput is tokens over the whole
// call, zero-guarded against an empty or instantaneous generation.
func FromWholeCall(start, end time.Time, promptTokens, completionTokens int) Report {
	r := Report{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TTFTMillis:       UndefinedTTFT,
		WallTimeSeconds:  end.Sub(start).Seconds(),
	}

	if completionTokens > 0 && r.WallTimeSeconds > 0 {
		r.TokensPerSecond = float64(completionTokens) / r.WallTimeSeconds
	}
	return r
}

// WriteBanner prints the interactive-chat metrics block shown after each
// streamed turn.
func (r Report) WriteBanner(w io.Writer) {
	fmt.Fprintf(w, "\n\n%s METRICS %s\n", strings.Repeat("=", 20), strings.Repeat("=", 20))
	fmt.Fprintf(w, "Context Tokens: %d\n", r.PromptTokens)
	fmt.Fprintf(w, "Generated Tokens: %d\n", r.CompletionTokens)
	fmt.Fprintf(w, "Time to First Token (TTFT): %.2f ms\n", r.TTFTMillis)
	fmt.Fprintf(w, "Tokens Per Second (generation): %.2f TPS\n", r.TokensPerSecond)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 49))
}

// WriteStats prints the single-shot performance block.
func (r Report) WriteStats(w io.Writer) {
	fmt.Fprintln(w, "\n--- Performance Statistics ---")
	fmt.Fprintf(w, "Prompt Tokens:     %d\n", r.PromptTokens)
	fmt.Fprintf(w, "Completion Tokens: %d\n", r.CompletionTokens)
	fmt.Fprintf(w, "Total Wall Time:   %.2f seconds\n", r.WallTimeSeconds)
	if r.TokensPerSecond > 0 {
		fmt.Fprintf(w, "Tokens per Second (Total): %.2f TPS\n", r.TokensPerSecond)
	} else {
		fmt.Fprintln(w, "Not enough data to calculate performance.")
	}
	fmt.Fprintln(w, "--------------------------")
}
