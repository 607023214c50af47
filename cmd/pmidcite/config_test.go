package main

import (
	"testing"
	"time"

	"github.com/mfujita47/pmidcite/internal/config"
)

func TestConfigValue(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = "secret-key-1234"
	cfg.APIDelay = 250 * time.Millisecond
	cfg.AuthorThreshold = 3
	cfg.Cache.TTL = 48 * time.Hour

	tests := []struct {
		key  string
		want string
	}{
		{"ncbi_api_key", "****1234"},
		{"api_delay", "0.25"},
		{"author_threshold", "3"},
		{"cache.ttl", "48h0m0s"},
		{"citation_format", "({number})"},
	}
	for _, tt := range tests {
		got, ok := configValue(cfg.Redacted(), tt.key)
		if !ok || got != tt.want {
			t.Errorf("configValue(%q) = %q, %v; want %q", tt.key, got, ok, tt.want)
		}
	}

	if _, ok := configValue(cfg, "pdf_root"); ok {
		t.Error("configValue(pdf_root) should report an unknown key")
	}
}

func TestConfigEntries_CoversEveryKey(t *testing.T) {
	entries := configEntries(config.Default())
	if len(entries) != len(config.Keys) {
		t.Fatalf("got %d entries, want %d", len(entries), len(config.Keys))
	}
	for i, key := range config.Keys {
		if entries[i][0] != key {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i][0], key)
		}
		if _, ok := configValue(config.Default(), key); !ok {
			t.Errorf("configValue(%q) does not know the key", key)
		}
	}
}
