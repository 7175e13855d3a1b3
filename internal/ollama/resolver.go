// Package ollama resolves model names like "llama3" or "llama3:8b" against
// a local ollama installation, so models already pulled by ollama can be
// used without copying the GGUF blob into the models directory.
package ollama

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultTag     = "latest"
	modelMediaType = "application/vnd.ollama.image.model"
)

// ModelsDirEnv overrides the ollama store location, matching ollama's own
// OLLAMA_MODELS variable.
const ModelsDirEnv = "OLLAMA_MODELS"

type manifest struct {
	SchemaVersion int     `json:"schemaVersion"`
	Layers        []layer `json:"layers"`
}

type layer struct {
	MediaType string `json:"mediaType"`
	Digest    string `json:"digest"`
	Size      int64  `json:"size"`
}

// StoreDir returns the local ollama model store, ~/.ollama/models unless
// overridden by OLLAMA_MODELS.
func StoreDir() (string, error) {
	if env := os.Getenv(ModelsDirEnv); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ollama", "models"), nil
}

// ResolveModelPath maps a model name to the GGUF blob path in the local
// ollama store. Names without a tag get "latest"; official models are
// assumed to live under registry.ollama.ai/library.
func ResolveModelPath(name string) (string, error) {
	base, tag, ok := strings.Cut(name, ":")
	if !ok {
		tag = defaultTag
	}

	store, err := StoreDir()
	if err != nil {
		return "", err
	}

	manifestPath := filepath.Join(store, "manifests", "registry.ollama.ai", "library", base, tag)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", fmt.Errorf("no ollama manifest for %s: %w", name, err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("parsing ollama manifest for %s: %w", name, err)
	}

	var digest string
	for _, l := range m.Layers {
		if l.MediaType == modelMediaType {
			digest = l.Digest
			break
		}
	}
	if digest == "" {
		return "", fmt.Errorf("ollama manifest for %s has no model layer", name)
	}

	// Blobs are stored as sha256-<hash>; digests arrive as sha256:<hash>.
	blob := filepath.Join(store, "blobs", strings.Replace(digest, ":", "-", 1))
	if _, err := os.Stat(blob); err != nil {
		return "", fmt.Errorf("ollama blob for %s missing: %w", name, err)
	}
	return blob, nil
}
