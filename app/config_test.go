package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigWithoutWeatherKey(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:testtoken")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("a missing weather api key must not be fatal: %v", err)
	}
	if cfg.WeatherEnabled() {
		t.Fatal("weather must be disabled without an api key")
	}
	if cfg.Weather.CacheTTLSeconds != 300 || cfg.CatFacts.CacheTTLSeconds != 60 {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Weather, cfg.CatFacts)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:testtoken")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "weather:\n  api_key: abc\nstorage:\n  path: data/users.json\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.WeatherEnabled() {
		t.Fatal("weather must be enabled with an api key")
	}
	if cfg.Storage.Path != "data/users.json" {
		t.Fatalf("storage path = %q", cfg.Storage.Path)
	}
}
