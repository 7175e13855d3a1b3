// fetch-model downloads a GGUF file from the Hugging Face hub into the
// local models directory, skipping the download when the file is already
// present.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/edgellm/ggufchat/internal/hub"
	"github.com/edgellm/ggufchat/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fetch-model", flag.ExitOnError)
	repoID := fs.String("repo-id", "", "Hugging Face repository id (e.g. google/gemma-3-27b-it-qat-q4_0-gguf)")
	filename := fs.String("filename", "", "Exact filename to download from the repository")
	token := fs.String("token", os.Getenv("HF_TOKEN"), "Access token for gated models (defaults to HF_TOKEN)")
	destDir := fs.String("models-dir", "models", "Directory to download into")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "console", "Log format (console or json)")
	fs.Parse(args)

	logger.Setup(*logLevel, *logFormat)
	log := logger.With("fetch-model")

	if *repoID == "" || *filename == "" {
		fmt.Fprintln(os.Stderr, "Error: --repo-id and --filename are required")
		fs.Usage()
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := &hub.Client{Token: *token, Log: log}
	path, err := client.Fetch(ctx, *repoID, *filename, *destDir)
	if err != nil {
		log.Error().Err(err).Msg("download failed")
		return 1
	}

	fmt.Printf("Model available at: %s\n", path)
	return 0
}
