// ggufbench loads a GGUF model, runs a single prompt through it, and prints
// detailed performance statistics for the generation.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgellm/ggufchat/internal/config"
	"github.com/edgellm/ggufchat/internal/llm"
	"github.com/edgellm/ggufchat/internal/logger"
	"github.com/edgellm/ggufchat/internal/metrics"
)

const defaultPrompt = "Write a short story about a robot exploring Mars."

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ggufbench", flag.ExitOnError)
	cfg := config.Default(256)

	if f, err := config.LoadFile(config.DefaultConfigFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	} else {
		cfg.Apply(f)
	}

	cfg.Register(fs)
	prompt := fs.String("prompt", defaultPrompt, "Prompt to benchmark with")
	metricsAddr := fs.String("metrics", "", "Optional address to serve Prometheus metrics on (e.g. :9090)")
	fs.Parse(args)

	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logger.With("ggufbench")

	if cfg.Model == "" {
		fmt.Fprintln(os.Stderr, "Error: --model flag is required")
		fs.Usage()
		return 1
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
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

	fmt.Println("--- Generating Response for Prompt ---")
	fmt.Printf("User: %s\n", *prompt)

	start := time.Now()
	text, err := runner.Predict(context.Background(), *prompt, cfg.MaxTokens)
	end := time.Now()
	if err != nil {
		log.Error().Err(err).Msg("generation failed")
		return 1
	}

	fmt.Printf("Assistant: %s\n", text)
	fmt.Println("\n--- End of Response ---")

	promptTokens, _ := runner.CountTokens(*prompt)
	completionTokens, _ := runner.CountTokens(text)

	report := metrics.FromWholeCall(start, end, promptTokens, completionTokens)
	metrics.Observe(report)
	report.WriteStats(os.Stdout)
	fmt.Println("Benchmark finished.")
	return 0
}
