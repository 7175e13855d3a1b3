package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/edgellm/ggufchat/internal/chat"
	"github.com/edgellm/ggufchat/internal/llm"
)

// fakeRunner is an in-memory Runner: Predict echoes a canned reply, the
// stream emits it in fixed deltas. The last prompt each method received is
// recorded for assertions.
type fakeRunner struct {
	reply      string
	deltas     []string
	predictErr error
	countErr   error
	gotPrompt  string
}

func (f *fakeRunner) Predict(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.gotPrompt = prompt
	if f.predictErr != nil {
		return "", f.predictErr
	}
	time.Sleep(time.Millisecond) // non-zero wall time for throughput math
	return f.reply, nil
}

func (f *fakeRunner) PredictStream(ctx context.Context, prompt string, maxTokens int) (<-chan llm.Chunk, error) {
	f.gotPrompt = prompt
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	ch := make(chan llm.Chunk, len(f.deltas)+1)
	for _, d := range f.deltas {
		ch <- llm.Chunk{Delta: d}
	}
	ch <- llm.Chunk{Final: true}
	close(ch)
	return ch, nil
}

func (f *fakeRunner) CountTokens(text string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(strings.Fields(text)) + 1, nil
}

func (f *fakeRunner) ModelPath() string { return "models/fake.gguf" }
func (f *fakeRunner) Close()            {}

func newTestServer(r llm.Runner) *Server {
	return New(r, zerolog.Nop(), WithStaticDir("testdata"))
}

func TestGenerateHandler(t *testing.T) {
	srv := newTestServer(&fakeRunner{reply: "Paris is the capital of France."})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/generate", "application/json",
		strings.NewReader(`{"prompt": "capital of France?", "max_tokens": 32}`))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var body GenerateResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Text != "Paris is the capital of France." {
		t.Errorf("unexpected text: %q", body.Text)
	}
	if body.TokensPerSecond <= 0 {
		t.Errorf("expected positive tokens_per_second, got %v", body.TokensPerSecond)
	}
}

func TestGenerateHandlerDefaultsMaxTokens(t *testing.T) {
	srv := newTestServer(&fakeRunner{reply: "ok"})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/generate", "application/json",
		strings.NewReader(`{"prompt": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
}

func TestGenerateAppliesChatTemplate(t *testing.T) {
	fake := &fakeRunner{reply: "ok"}
	srv := New(fake, zerolog.Nop(), WithTemplate(chat.GemmaTemplate{}))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/generate", "application/json",
		strings.NewReader(`{"prompt": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	want := "<start_of_turn>user\nhi<end_of_turn>\n<start_of_turn>model\n"
	if fake.gotPrompt != want {
		t.Errorf("expected templated prompt %q, got %q", want, fake.gotPrompt)
	}
}

func TestGenerateDefaultTemplateIsPlain(t *testing.T) {
	fake := &fakeRunner{reply: "ok"}
	srv := newTestServer(fake)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/generate", "application/json",
		strings.NewReader(`{"prompt": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	if fake.gotPrompt != "user: hi" {
		t.Errorf("expected plain-rendered prompt, got %q", fake.gotPrompt)
	}
}

func TestStreamAppliesChatTemplate(t *testing.T) {
	fake := &fakeRunner{deltas: []string{"ok"}}
	srv := New(fake, zerolog.Nop(), WithTemplate(chat.GemmaTemplate{}))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/stream", "application/json",
		strings.NewReader(`{"prompt": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	io.ReadAll(res.Body)
	res.Body.Close()

	if !strings.Contains(fake.gotPrompt, "<start_of_turn>user\nhi<end_of_turn>") {
		t.Errorf("expected templated prompt, got %q", fake.gotPrompt)
	}
}

func TestGenerateLogsTokenCountFailure(t *testing.T) {
	var logs bytes.Buffer
	fake := &fakeRunner{reply: "ok", countErr: errors.New("tokenizer unavailable")}
	srv := New(fake, zerolog.New(&logs))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/generate", "application/json",
		strings.NewReader(`{"prompt": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 despite count failure, got %d", res.StatusCode)
	}
	if !strings.Contains(logs.String(), "token count failed") {
		t.Errorf("expected token count failure in logs, got %q", logs.String())
	}
}

func TestGenerateHandlerRejectsBadRequests(t *testing.T) {
	srv := newTestServer(&fakeRunner{reply: "ok"})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing prompt", `{"max_tokens": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := http.Post(ts.URL+"/api/generate", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			res.Body.Close()
			if res.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", res.StatusCode)
			}
		})
	}
}

func TestGenerateHandlerMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/api/generate")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", res.StatusCode)
	}
}

func TestStreamHandlerEmitsSSE(t *testing.T) {
	srv := newTestServer(&fakeRunner{deltas: []string{"Hello", " world"}})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/stream", "application/json",
		strings.NewReader(`{"prompt": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	if !strings.Contains(out, `"delta":"Hello"`) {
		t.Errorf("missing first delta event in %q", out)
	}
	if !strings.Contains(out, `"delta":" world"`) {
		t.Errorf("missing second delta event in %q", out)
	}
	if !strings.Contains(out, `"done":true`) {
		t.Errorf("missing terminal event in %q", out)
	}
}

func TestStreamHandlerNoContentChunks(t *testing.T) {
	srv := newTestServer(&fakeRunner{deltas: nil})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/stream", "application/json",
		strings.NewReader(`{"prompt": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	// No first token ever arrived: the terminal event reports the TTFT
	// sentinel and no throughput field.
	if !strings.Contains(out, `"ttft_ms":-1`) {
		t.Errorf("expected ttft sentinel in %q", out)
	}
	if strings.Contains(out, `"tokens_per_second"`) {
		t.Errorf("expected no throughput for an empty stream, got %q", out)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
}

func TestReadyzReportsModel(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var status healthStatus
	if err := json.NewDecoder(res.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "ready" {
		t.Errorf("expected ready, got %q", status.Status)
	}
	if status.Model != "models/fake.gguf" {
		t.Errorf("unexpected model: %q", status.Model)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(&fakeRunner{reply: "ok"})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/generate", "application/json",
		strings.NewReader(`{"prompt": "hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header on API responses")
	}
}
