package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/pmidcite/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "pmidcite", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	f, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if f == nil || f.PMIDRegex != "" || f.Separators != nil {
		t.Errorf("LoadGlobalConfig() = %+v, want empty", f)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	writeConfig(t, tmpDir, `
ncbi_api_key: file-key
separators: ""
author_threshold: 3
api_delay: 0.5
cache:
  backend: sqlite
  path: ~/pmid.db
  ttl: 24h
`)

	f, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if f.NCBIAPIKey != "file-key" {
		t.Errorf("NCBIAPIKey = %q, want file-key", f.NCBIAPIKey)
	}
	if f.Separators == nil || *f.Separators != "" {
		t.Errorf("Separators = %v, want explicit empty", f.Separators)
	}
	if f.AuthorThreshold == nil || *f.AuthorThreshold != 3 {
		t.Errorf("AuthorThreshold = %v, want 3", f.AuthorThreshold)
	}
	if f.Cache.Backend != "sqlite" || f.Cache.TTL != "24h" {
		t.Errorf("Cache = %+v", f.Cache)
	}
	if home, err := os.UserHomeDir(); err == nil {
		if want := filepath.Join(home, "pmid.db"); f.Cache.Path != want {
			t.Errorf("Cache.Path = %q, want %q", f.Cache.Path, want)
		}
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	writeConfig(t, tmpDir, "author_threshold: [not, a, number]\n")

	_, err := LoadGlobalConfig()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadGlobalConfig() error = %v, want ErrInvalidConfig", err)
	}
}

func TestGlobalConfigCache(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	writeConfig(t, tmpDir, "email: first@example.org\n")

	f1, _ := LoadGlobalConfig()
	writeConfig(t, tmpDir, "email: second@example.org\n")
	f2, _ := LoadGlobalConfig()
	if f1 != f2 || f2.Email != "first@example.org" {
		t.Errorf("second load = %+v, want cached first", f2)
	}

	ResetGlobalConfigCache()
	f3, _ := LoadGlobalConfig()
	if f3.Email != "second@example.org" {
		t.Errorf("after reset Email = %q, want second@example.org", f3.Email)
	}
}

func TestSaveGlobalConfig(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	f := &File{}
	if err := f.Set("api_delay", "0"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.Set("cache.backend", "redis"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := SaveGlobalConfig(f); err != nil {
		t.Fatalf("SaveGlobalConfig() error = %v", err)
	}

	info, err := os.Stat(GlobalConfigPath())
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %v, want 0600", perm)
	}

	ResetGlobalConfigCache()
	loaded, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if loaded.APIDelay == nil || *loaded.APIDelay != 0 {
		t.Errorf("APIDelay = %v, want explicit 0", loaded.APIDelay)
	}
	if loaded.Cache.Backend != "redis" {
		t.Errorf("Cache.Backend = %q, want redis", loaded.Cache.Backend)
	}
}

func TestFile_GetSet(t *testing.T) {
	f := &File{}
	for _, key := range Keys {
		value := "x"
		switch key {
		case "author_threshold":
			value = "5"
		case "api_delay":
			value = "0.25"
		}
		if err := f.Set(key, value); err != nil {
			t.Errorf("Set(%q) error = %v", key, err)
			continue
		}
		got, err := f.Get(key)
		if err != nil || got != value {
			t.Errorf("Get(%q) = (%q, %v), want %q", key, got, err, value)
		}
	}
}

func TestFile_SetErrors(t *testing.T) {
	f := &File{}
	if err := f.Set("colour", "red"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(colour) error = %v, want ErrUnknownKey", err)
	}
	if _, err := f.Get("colour"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(colour) error = %v, want ErrUnknownKey", err)
	}
	if err := f.Set("author_threshold", "many"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Set(author_threshold, many) error = %v, want ErrInvalidConfig", err)
	}
	if err := f.Set("api_delay", "soon"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Set(api_delay, soon) error = %v, want ErrInvalidConfig", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("ExpandPath(~/x) = %q", got)
	}
	if got := ExpandPath("/abs"); got != "/abs" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
}

func writeConfig(t *testing.T, configHome, content string) {
	t.Helper()
	dir := filepath.Join(configHome, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
