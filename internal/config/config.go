// Package config handles workspace discovery and configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Workspace layout constants.
const (
	CorpusDir  = ".corpus"
	ConfigFile = "config.yml"
	DBFile     = "metadata.db"
	CacheDir   = "cache"
	IndexFile  = "vectors.gob"

	// EnvRoot overrides workspace discovery when set.
	EnvRoot = "CORPUS_ROOT"
)

// CorpusPath returns the path to the .corpus directory from a root path.
func CorpusPath(root string) string {
	return filepath.Join(root, CorpusDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, CorpusDir, ConfigFile)
}

// DBPath returns the path to metadata.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, CorpusDir, DBFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, CorpusDir, CacheDir)
}

// IndexPath returns the path to the vector index file from a root path.
func IndexPath(root string) string {
	return filepath.Join(root, CorpusDir, CacheDir, IndexFile)
}

// IsWorkspace checks if the given path contains a corpus workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(CorpusPath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace locates the workspace root. The CORPUS_ROOT
// environment variable wins when set; otherwise the search walks up
// from the given path.
func FindWorkspace(start string) (string, error) {
	if root := os.Getenv(EnvRoot); root != "" {
		if !IsWorkspace(root) {
			return "", fmt.Errorf("%s points to %s, which is not a corpus workspace", EnvRoot, root)
		}
		return root, nil
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a corpus workspace (no %s directory found)", CorpusDir)
		}
		abs = parent
	}
}

// Init creates the workspace skeleton at root and writes the default
// configuration. Re-running on an existing workspace is an error.
func Init(root string) error {
	if IsWorkspace(root) {
		return fmt.Errorf("workspace already initialized at %s", CorpusPath(root))
	}

	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return fmt.Errorf("creating workspace directories: %w", err)
	}

	cfg := Default()
	return cfg.Save(root)
}

// ExpandPath expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	URL        string `yaml:"url" json:"url"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
}

// RerankConfig configures the reranking backend.
type RerankConfig struct {
	URL     string `yaml:"url" json:"url"`
	Model   string `yaml:"model" json:"model"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// ChunkingConfig bounds chunk sizes in estimated tokens.
type ChunkingConfig struct {
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
	MinTokens int `yaml:"min_tokens" json:"min_tokens"`
}

// RetrievalConfig shapes query-time behavior.
type RetrievalConfig struct {
	TopN int `yaml:"top_n" json:"top_n"`
	TopK int `yaml:"top_k" json:"top_k"`
}

// PlanningConfig bounds corpus analysis for plan linking.
type PlanningConfig struct {
	MaxIntroChunksPerDoc int    `yaml:"max_intro_chunks_per_doc" json:"max_intro_chunks_per_doc"`
	MaxDocsForThemes     int    `yaml:"max_documents_for_theme" json:"max_documents_for_theme"`
	GenerateURL          string `yaml:"generate_url" json:"generate_url"`
	GenerateModel        string `yaml:"generate_model" json:"generate_model"`
}

// Config is the workspace configuration stored in .corpus/config.yml.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank" json:"rerank"`
	Chunking  ChunkingConfig  `yaml:"chunking" json:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	Planning  PlanningConfig  `yaml:"planning" json:"planning"`
}

// Default returns the configuration a fresh workspace starts with.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			URL:        "http://localhost:11434",
			Model:      "all-minilm:l6-v2",
			Dimensions: 384,
			BatchSize:  32,
		},
		Rerank: RerankConfig{
			URL:     "http://localhost:8787",
			Model:   "BAAI/bge-reranker-base",
			Enabled: true,
		},
		Chunking: ChunkingConfig{
			MaxTokens: 800,
			MinTokens: 50,
		},
		Retrieval: RetrievalConfig{
			TopN: 10,
			TopK: 5,
		},
		Planning: PlanningConfig{
			MaxIntroChunksPerDoc: 3,
			MaxDocsForThemes:     30,
			GenerateURL:          "http://localhost:11434",
			GenerateModel:        "qwen2.5:7b",
		},
	}
}

// Load reads configuration from the workspace at the given root.
// Fields absent from the file keep their defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
