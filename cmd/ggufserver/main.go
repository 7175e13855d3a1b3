// ggufserver loads a GGUF model once at startup and serves a generate API,
// streaming endpoints, and a static chat front-end over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgellm/ggufchat/internal/chat"
	"github.com/edgellm/ggufchat/internal/config"
	"github.com/edgellm/ggufchat/internal/llm"
	"github.com/edgellm/ggufchat/internal/logger"
	"github.com/edgellm/ggufchat/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ggufserver", flag.ExitOnError)
	cfg := config.Default(512)

	host := "0.0.0.0"
	port := 8000
	if f, err := config.LoadFile(config.DefaultConfigFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	} else {
		cfg.Apply(f)
		if f != nil && f.Server.Host != "" {
			host = f.Server.Host
		}
		if f != nil && f.Server.Port > 0 {
			port = f.Server.Port
		}
	}

	cfg.Register(fs)
	fs.StringVar(&host, "host", host, "Host to bind the server to")
	fs.IntVar(&port, "port", port, "Port to listen on")
	staticDir := fs.String("static-dir", "web_ui", "Directory holding the front-end assets")
	fs.Parse(args)

	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logger.With("ggufserver")

	if cfg.Model == "" {
		fmt.Fprintln(os.Stderr, "Error: --model flag is required")
		fs.Usage()
		return 1
	}

	modelPath, err := cfg.ResolveModelPath()
	if err != nil {
		log.Error().Err(err).Msg("cannot resolve model")
		return 1
	}

	llm.ReportGPU(log)

	log.Info().Str("model", modelPath).Msg("loading model")
	runner, err := llm.LoadWithProgress(modelPath, cfg.LlamaOptions(), os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("model load failed")
		return 1
	}
	defer runner.Close()
	log.Info().Msg("model loaded, server ready")

	srv := server.New(runner, log,
		server.WithStaticDir(*staticDir),
		server.WithMaxTokens(cfg.MaxTokens),
		server.WithTemplate(chat.ForModel(cfg.Template)),
	)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			return 1
		}
	case <-sigCh:
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("shutdown incomplete")
		}
	}

	log.Info().Msg("server stopped")
	return 0
}
