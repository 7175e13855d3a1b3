package server

import (
	"encoding/json"
	"math"
	"net/http"
	"path/filepath"
	"time"

	"github.com/edgellm/ggufchat/internal/chat"
	"github.com/edgellm/ggufchat/internal/metrics"
)

// GenerateRequest is the body of POST /api/generate and /api/stream.
type GenerateRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// GenerateResponse is the whole-call result.
type GenerateResponse struct {
	Text            string  `json:"text"`
	TokensPerSecond float64 `json:"tokens_per_second"`
}

func (s *Server) decodeGenerate(w http.ResponseWriter, r *http.Request) (GenerateRequest, bool) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return req, false
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = s.maxTokens
	}
	return req, true
}

// handleGenerate runs a whole-call generation. The conversation is a single
// user message; nothing persists across requests.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGenerate(w, r)
	if !ok {
		return
	}

	prompt := s.renderPrompt(req.Prompt)

	s.mu.Lock()
	start := time.Now()
	text, err := s.runner.Predict(r.Context(), prompt, req.MaxTokens)
	end := time.Now()
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Msg("generation failed")
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}

	promptTokens := s.countTokens(prompt)
	completionTokens := s.countTokens(text)

	report := metrics.FromWholeCall(start, end, promptTokens, completionTokens)
	metrics.Observe(report)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GenerateResponse{
		Text:            text,
		TokensPerSecond: math.Round(report.TokensPerSecond*100) / 100,
	})
}

// streamEvent is one SSE data payload. The terminal event carries the
// derived report fields.
type streamEvent struct {
	Delta           string  `json:"delta,omitempty"`
	Done            bool    `json:"done"`
	TokensPerSecond float64 `json:"tokens_per_second,omitempty"`
	TTFTMillis      float64 `json:"ttft_ms,omitempty"`
}

// handleStream runs a streamed generation over server-sent events, one
// event per delta plus a terminal event with the metrics.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGenerate(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	prompt := s.renderPrompt(req.Prompt)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	chunks, err := s.runner.PredictStream(r.Context(), prompt, req.MaxTokens)
	if err != nil {
		s.log.Error().Err(err).Msg("stream start failed")
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}

	collector := chat.Collector{Sink: &sseWriter{w: w, flusher: flusher}}
	result := collector.Collect(chunks)
	end := time.Now()

	if result.Err != nil {
		s.log.Error().Err(result.Err).Msg("stream generation failed")
	}

	promptTokens := s.countTokens(prompt)
	completionTokens := s.countTokens(result.Text)
	report := metrics.FromStream(start, result.FirstToken, end, result.SawToken, promptTokens, completionTokens)
	metrics.Observe(report)

	writeSSE(w, streamEvent{
		Done:            true,
		TokensPerSecond: report.TokensPerSecond,
		TTFTMillis:      report.TTFTMillis,
	})
	flusher.Flush()
}

// sseWriter adapts the collector's pass-through sink to SSE delta events.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) Write(p []byte) (int, error) {
	writeSSE(s.w, streamEvent{Delta: string(p)})
	s.flusher.Flush()
	return len(p), nil
}

func writeSSE(w http.ResponseWriter, ev streamEvent) {
	data, _ := json.Marshal(ev)
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}

// renderPrompt wraps the raw API prompt in a fresh single-user-message
// conversation so the configured chat template shapes API generations the
// same way it shapes the interactive CLI.
func (s *Server) renderPrompt(raw string) string {
	conv := chat.NewConversation("", s.tmpl)
	conv.AddUser(raw)
	return conv.Render()
}

// countTokens counts and logs tokenize failures instead of silently
// reporting zero.
func (s *Server) countTokens(text string) int {
	n, err := s.runner.CountTokens(text)
	if err != nil {
		s.log.Warn().Err(err).Msg("token count failed")
	}
	return n
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
}
