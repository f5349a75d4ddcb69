package config

import (
	"testing"
)

func TestValidateMeasure(t *testing.T) {
	tests := []struct {
		measure string
		wantErr bool
	}{
		{"tokens", false},
		{"bytes", false},
		{"", false}, // empty defaults to tokens
		{"lines", true},
		{"TOKENS", true}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.measure, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Chunking.Measure = tt.measure
			errs := Validate(cfg)

			hasErr := len(errs) > 0
			if hasErr != tt.wantErr {
				t.Errorf("Validate(Chunking.Measure=%q) hasErr=%v, want %v", tt.measure, hasErr, tt.wantErr)
			}
		})
	}
}

func TestValidateProviders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embedding.Provider = "voyage"
	cfg.Chunking.Strategy = "lines"
	errs := Validate(cfg)
	if len(errs) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(errs), errs)
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, warnings, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning about missing config")
	}
	if cfg.Chunking.Strategy != "treesitter" {
		t.Errorf("strategy = %q, want treesitter", cfg.Chunking.Strategy)
	}
	if cfg.Chunking.MaxChunkSize != 2000 {
		t.Errorf("max chunk size = %d, want 2000", cfg.Chunking.MaxChunkSize)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Chunking.Strategy = "simple"
	cfg.Chunking.MaxChunkSize = 512
	cfg.Chunking.Measure = "bytes"
	cfg.Embedding.Provider = "openai"
	cfg.Embedding.Model = "text-embedding-3-small"

	if err := Save(root, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Chunking.Strategy != "simple" || loaded.Chunking.MaxChunkSize != 512 {
		t.Errorf("chunking = %+v", loaded.Chunking)
	}
	if loaded.Chunking.Measure != "bytes" {
		t.Errorf("measure = %q, want bytes", loaded.Chunking.Measure)
	}
	if loaded.Embedding.Provider != "openai" {
		t.Errorf("embedding provider = %q, want openai", loaded.Embedding.Provider)
	}
}

func TestHashChangesWithChunkingConfig(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	if a.Hash() != b.Hash() {
		t.Error("identical configs hash differently")
	}

	b.Chunking.MaxChunkSize = 512
	if a.Hash() == b.Hash() {
		t.Error("hash ignores max chunk size")
	}

	c := DefaultConfig()
	c.Chunking.Measure = "bytes"
	if a.Hash() == c.Hash() {
		t.Error("hash ignores measure")
	}
}

func TestCopyIsDeep(t *testing.T) {
	cfg := DefaultConfig()
	dup := cfg.Copy()

	dup.Index.Include[0] = "**/*.zig"
	if cfg.Index.Include[0] == "**/*.zig" {
		t.Error("Copy shares the include slice")
	}
}
