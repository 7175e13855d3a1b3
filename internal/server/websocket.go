package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edgellm/ggufchat/internal/chat"
	"github.com/edgellm/ggufchat/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsEvent mirrors streamEvent for the websocket transport.
type wsEvent struct {
	Delta           string  `json:"delta,omitempty"`
	Done            bool    `json:"done"`
	Error           string  `json:"error,omitempty"`
	TokensPerSecond float64 `json:"tokens_per_second,omitempty"`
	TTFTMillis      float64 `json:"ttft_ms,omitempty"`
}

// handleWebSocket streams generations over a websocket. Each client message
// is one GenerateRequest; deltas are pushed as they arrive and a terminal
// event carries the metrics. Requests on one connection run sequentially.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024)

	for {
		var req GenerateRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		if req.Prompt == "" {
			conn.WriteJSON(wsEvent{Done: true, Error: "prompt is required"})
			continue
		}
		if req.MaxTokens <= 0 {
			req.MaxTokens = s.maxTokens
		}

		s.streamToSocket(r, conn, req)
	}
}

func (s *Server) streamToSocket(r *http.Request, conn *websocket.Conn, req GenerateRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompt := s.renderPrompt(req.Prompt)

	start := time.Now()
	chunks, err := s.runner.PredictStream(r.Context(), prompt, req.MaxTokens)
	if err != nil {
		conn.WriteJSON(wsEvent{Done: true, Error: "generation failed"})
		return
	}

	collector := chat.Collector{Sink: wsSink{conn: conn}}
	result := collector.Collect(chunks)
	end := time.Now()

	if result.Err != nil {
		s.log.Error().Err(result.Err).Msg("websocket generation failed")
		conn.WriteJSON(wsEvent{Done: true, Error: "generation failed"})
		return
	}

	promptTokens := s.countTokens(prompt)
	completionTokens := s.countTokens(result.Text)
	report := metrics.FromStream(start, result.FirstToken, end, result.SawToken, promptTokens, completionTokens)
	metrics.Observe(report)

	conn.WriteJSON(wsEvent{
		Done:            true,
		TokensPerSecond: report.TokensPerSecond,
		TTFTMillis:      report.TTFTMillis,
	})
}

// wsSink pushes each delta to the socket as it arrives.
type wsSink struct {
	conn *websocket.Conn
}

func (s wsSink) Write(p []byte) (int, error) {
	if err := s.conn.WriteJSON(wsEvent{Delta: string(p)}); err != nil {
		return 0, err
	}
	return len(p), nil
}
