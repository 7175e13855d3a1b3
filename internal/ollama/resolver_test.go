package ollama

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// writeStore lays out a minimal ollama store with one model manifest and
// its blob, returning the store root.
func writeStore(t *testing.T, name, tag, digest string, withBlob bool) string {
	t.Helper()
	store := t.TempDir()

	manifestDir := filepath.Join(store, "manifests", "registry.ollama.ai", "library", name)
	if err := os.MkdirAll(manifestDir, 0o755); err != nil {
		t.Fatal(err)
	}

	m := manifest{
		SchemaVersion: 2,
		Layers: []layer{
			{MediaType: "application/vnd.ollama.image.template", Digest: "sha256:other", Size: 10},
			{MediaType: modelMediaType, Digest: digest, Size: 1234},
		},
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(manifestDir, tag), data, 0o644); err != nil {
		t.Fatal(err)
	}

	if withBlob {
		blobDir := filepath.Join(store, "blobs")
		if err := os.MkdirAll(blobDir, 0o755); err != nil {
			t.Fatal(err)
		}
		blobName := "sha256-" + digest[len("sha256:"):]
		if err := os.WriteFile(filepath.Join(blobDir, blobName), []byte("gguf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func TestResolveModelPath(t *testing.T) {
	store := writeStore(t, "llama3", "latest", "sha256:abc123", true)
	t.Setenv(ModelsDirEnv, store)

	path, err := ResolveModelPath("llama3")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := filepath.Join(store, "blobs", "sha256-abc123")
	if path != want {
		t.Errorf("expected %s, got %s", want, path)
	}
}

func TestResolveModelPathWithTag(t *testing.T) {
	store := writeStore(t, "llama3", "8b", "sha256:def456", true)
	t.Setenv(ModelsDirEnv, store)

	if _, err := ResolveModelPath("llama3:8b"); err != nil {
		t.Fatalf("resolve with tag failed: %v", err)
	}
}

func TestResolveModelPathMissingManifest(t *testing.T) {
	t.Setenv(ModelsDirEnv, t.TempDir())

	if _, err := ResolveModelPath("nope"); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestResolveModelPathMissingBlob(t *testing.T) {
	store := writeStore(t, "llama3", "latest", "sha256:abc123", false)
	t.Setenv(ModelsDirEnv, store)

	if _, err := ResolveModelPath("llama3"); err == nil {
		t.Error("expected error for missing blob")
	}
}

func TestStoreDirEnvOverride(t *testing.T) {
	t.Setenv(ModelsDirEnv, "/custom/store")
	dir, err := StoreDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/custom/store" {
		t.Errorf("expected env override, got %s", dir)
	}
}
