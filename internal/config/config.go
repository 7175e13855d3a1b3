// Package config holds the flag and file configuration shared by the
// ggufchat binaries.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/edgellm/ggufchat/internal/llm"
	"github.com/edgellm/ggufchat/internal/ollama"
)

// DefaultConfigFile is looked up in the working directory when --config is
// not given.
const DefaultConfigFile = "ggufchat.toml"

// ModelsDirEnv overrides the models directory when set.
const ModelsDirEnv = "GGUFCHAT_MODELS"

// Common is the configuration every binary shares.
type Common struct {
	Model     string
	ModelsDir string
	GPULayers int
	CtxSize   int
	MaxTokens int
	Template  string
	LogLevel  string
	LogFormat string
}

// Default returns the baseline configuration. defaultMaxTokens differs per
// tool (1024 for chat, 256 for the benchmark, 512 for the server).
func Default(defaultMaxTokens int) Common {
	return Common{
		ModelsDir: "models",
		GPULayers: -1,
		CtxSize:   4096,
		MaxTokens: defaultMaxTokens,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Register wires the shared flags onto fs, using the current field values
// as defaults. Call after Apply so config-file values become defaults and
// explicit flags still win.
func (c *Common) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.Model, "model", c.Model, "Filename of the GGUF model in the models directory (required)")
	fs.StringVar(&c.ModelsDir, "models-dir", c.ModelsDir, "Directory holding GGUF model files")
	fs.IntVar(&c.GPULayers, "n-gpu-layers", c.GPULayers, "Number of layers to offload to GPU (-1 for all, 0 for CPU-only)")
	fs.IntVar(&c.CtxSize, "n-ctx", c.CtxSize, "Context window size for the model")
	fs.IntVar(&c.MaxTokens, "max-tokens", c.MaxTokens, "Maximum number of tokens to generate")
	fs.StringVar(&c.Template, "chat-template", c.Template, "Chat template name (e.g. gemma); empty uses a plain role: content join")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (console or json)")
}

// LlamaOptions maps the shared flags to binding load options.
func (c *Common) LlamaOptions() llm.Options {
	return llm.Options{CtxSize: c.CtxSize, GPULayers: c.GPULayers}
}

// ResolveModelPath locates the model file. The name is first resolved under
// the models directory; when absent there, it is tried as a local ollama
// model name (llama3, llama3:8b, ...) against the ollama blob store. A name
// that resolves nowhere returns llm.ErrModelNotFound.
func (c *Common) ResolveModelPath() (string, error) {
	if c.Model == "" {
		return "", fmt.Errorf("%w: no model name given", llm.ErrModelNotFound)
	}

	dir := c.ModelsDir
	if env := os.Getenv(ModelsDirEnv); env != "" {
		dir = env
	}

	path := filepath.Join(dir, c.Model)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if blob, err := ollama.ResolveModelPath(c.Model); err == nil {
		return blob, nil
	}

	return "", fmt.Errorf("%w: %s", llm.ErrModelNotFound, path)
}

// File is the optional TOML configuration.
type File struct {
	ModelsDir string `toml:"models_dir"`
	Template  string `toml:"chat_template"`
	CtxSize   int    `toml:"n_ctx"`

	Server struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"server"`
}

// LoadFile parses the TOML config file. The file is optional: a missing
// file yields nil without error, a malformed one is reported.
func LoadFile(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &f, nil
}

// Apply folds file values into the configuration as new defaults.
func (c *Common) Apply(f *File) {
	if f == nil {
		return
	}
	if f.ModelsDir != "" {
		c.ModelsDir = f.ModelsDir
	}
	if f.Template != "" {
		c.Template = f.Template
	}
	if f.CtxSize > 0 {
		c.CtxSize = f.CtxSize
	}
}
