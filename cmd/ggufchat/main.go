// ggufchat is the unified CLI for local GGUF models: with --prompt it runs
// a single inference and prints performance statistics, without it it
// enters an interactive chat loop with per-turn metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edgellm/ggufchat/internal/chat"
	"github.com/edgellm/ggufchat/internal/config"
	"github.com/edgellm/ggufchat/internal/llm"
	"github.com/edgellm/ggufchat/internal/logger"
	"github.com/edgellm/ggufchat/internal/metrics"
)

const systemPrompt = "You are a helpful assistant."

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ggufchat", flag.ExitOnError)
	cfg := config.Default(1024)

	if f, err := config.LoadFile(config.DefaultConfigFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	} else {
		cfg.Apply(f)
	}

	cfg.Register(fs)
	prompt := fs.String("prompt", "", "Prompt for single-shot inference; omit to start interactive chat")
	metricsAddr := fs.String("metrics", "", "Optional address to serve Prometheus metrics on (e.g. :9090)")
	fs.Parse(args)

	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logger.With("ggufchat")

	if cfg.Model == "" {
		fmt.Fprintln(os.Stderr, "Error: --model flag is required")
		fs.Usage()
		return 1
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info().Str("addr", *metricsAddr).Msg("metrics listener started")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Warn().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	modelPath, err := cfg.ResolveModelPath()
	if err != nil {
		log.Error().Err(err).Msg("cannot resolve model")
		return 1
	}

	llm.ReportGPU(log)

	runner, err := llm.LoadWithProgress(modelPath, cfg.LlamaOptions(), os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("model load failed")
		return 1
	}
	defer runner.Close()
	fmt.Println("Model loaded successfully.")

	tmpl := chat.ForModel(cfg.Template)

	if *prompt != "" {
		return singleShot(runner, tmpl, *prompt, cfg.MaxTokens, log)
	}
	return interactive(runner, tmpl, cfg.MaxTokens, log)
}

// singleShot runs one whole-call generation and prints the stats block.
// The prompt goes through the chat template as a single user message.
func singleShot(runner llm.Runner, tmpl chat.Template, prompt string, maxTokens int, log zerolog.Logger) int {
	fmt.Println("--- Generating Response for Prompt ---")
	fmt.Printf("%s %s\n", userStyle.Render("User:"), prompt)

	conv := chat.NewConversation("", tmpl)
	conv.AddUser(prompt)
	rendered := conv.Render()

	start := time.Now()
	text, err := runner.Predict(context.Background(), rendered, maxTokens)
	end := time.Now()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("%s %s\n", assistantStyle.Render("Assistant:"), text)
	fmt.Println("\n--- End of Response ---")

	promptTokens := countTokens(runner, rendered, log)
	completionTokens := countTokens(runner, text, log)

	report := metrics.FromWholeCall(start, end, promptTokens, completionTokens)
	metrics.Observe(report)
	report.WriteStats(os.Stdout)
	fmt.Println("Inference finished.")
	return 0
}

// interactive runs the chat loop: read a prompt, stream the response to the
// terminal, print the metrics banner, repeat.
func interactive(runner llm.Runner, tmpl chat.Template, maxTokens int, log zerolog.Logger) int {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyPath := historyFile()
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveHistory(line, historyPath)

	conv := chat.NewConversation(systemPrompt, tmpl)

	fmt.Println("\n--- Interactive Chat ---")
	fmt.Println(infoStyle.Render("Enter a prompt. Type 'exit' or 'quit' to end."))

	for {
		input, err := line.Prompt(userStyle.Render("> User: "))
		if err != nil {
			// Ctrl+C / Ctrl+D end the session.
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if lower := strings.ToLower(input); lower == "exit" || lower == "quit" {
			break
		}
		line.AppendHistory(input)

		conv.AddUser(input)
		promptTokens, err := conv.PromptTokens(runner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}

		fmt.Print(assistantStyle.Render("> Assistant: "))

		start := time.Now()
		chunks, err := runner.PredictStream(context.Background(), conv.Render(), maxTokens)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}

		collector := chat.Collector{Sink: os.Stdout}
		result := collector.Collect(chunks)
		end := time.Now()
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", result.Err)
			return 1
		}

		conv.AddAssistant(result.Text)

		completionTokens := countTokens(runner, result.Text, log)
		report := metrics.FromStream(start, result.FirstToken, end, result.SawToken, promptTokens, completionTokens)
		metrics.Observe(report)
		report.WriteBanner(os.Stdout)
	}

	fmt.Println("\nSession ended.")
	return 0
}

// countTokens counts and logs tokenize failures instead of silently
// reporting zero.
func countTokens(runner llm.Runner, text string, log zerolog.Logger) int {
	n, err := runner.CountTokens(text)
	if err != nil {
		log.Warn().Err(err).Msg("token count failed")
	}
	return n
}

func historyFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ggufchat", "history")
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
