// Package hub downloads GGUF model files from the Hugging Face hub into the
// local models directory.
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Hugging Face hub endpoint.
const DefaultBaseURL = "https://huggingface.co"

// Client fetches model files over HTTP.
type Client struct {
	// BaseURL defaults to the public hub; tests point it elsewhere.
	BaseURL string
	// Token is an optional access token for gated repositories.
	Token string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	Log zerolog.Logger
}

// Fetch downloads filename from repoID into destDir, creating the directory
// as needed. An already-present file is left untouched. The download goes
// to a temp file first and is renamed into place, so a partial transfer
// never masquerades as a complete model.
func (c *Client) Fetch(ctx context.Context, repoID, filename, destDir string) (string, error) {
	dest := filepath.Join(destDir, filename)
	if _, err := os.Stat(dest); err == nil {
		c.Log.Info().Str("path", dest).Msg("model file already exists locally, skipping download")
		return dest, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating models directory: %w", err)
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	url := fmt.Sprintf("%s/%s/resolve/main/%s", base, repoID, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	c.Log.Info().Str("repo", repoID).Str("file", filename).Msg("starting download")
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: unexpected status %s (check the repo id, the filename, and whether the model is gated)", url, resp.Status)
	}

	tmp, err := os.CreateTemp(destDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("syncing %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filename, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("moving %s into place: %w", filename, err)
	}

	c.Log.Info().Str("path", dest).Int64("bytes", n).Msg("download complete")
	return dest, nil
}
