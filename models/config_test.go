package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q, want 'gpt-4o-mini'", cfg.OpenAIModel)
	}
	if cfg.TTSEngine != "gtts" {
		t.Errorf("TTSEngine = %q, want 'gtts'", cfg.TTSEngine)
	}
	if cfg.GoogleTTSLang != "zh-CN" {
		t.Errorf("GoogleTTSLang = %q, want 'zh-CN'", cfg.GoogleTTSLang)
	}
	if cfg.AnkiConnectURL != "http://localhost:8765" {
		t.Errorf("AnkiConnectURL = %q, want 'http://localhost:8765'", cfg.AnkiConnectURL)
	}
	if cfg.DeckName != "Chino SRS" {
		t.Errorf("DeckName = %q, want 'Chino SRS'", cfg.DeckName)
	}
	if cfg.AudioDir != filepath.Join("resources", "audios") {
		t.Errorf("AudioDir = %q", cfg.AudioDir)
	}
	if cfg.AzureSpeed != 1.0 {
		t.Errorf("AzureSpeed = %v, want 1.0", cfg.AzureSpeed)
	}
}

func TestConfigPath(t *testing.T) {
	cfg := DefaultConfig()
	homeDir, _ := os.UserHomeDir()

	expected := filepath.Join(homeDir, ".config", "chinosrs", "config.json")
	if got := cfg.ConfigPath(); got != expected {
		t.Errorf("ConfigPath() = %q, want %q", got, expected)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AZURE_TTS_KEY", "az-test")
	t.Setenv("AZURE_TTS_REGION", "westeurope")
	t.Setenv("ANKI_CONNECT_URL", "http://localhost:9999")
	t.Setenv("ANKI_DECK_NAME", "Pruebas")
	t.Setenv("ANKI_AUDIO_DIR", "/tmp/audios")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.OpenAIKey != "sk-test" {
		t.Errorf("OpenAIKey = %q", cfg.OpenAIKey)
	}
	if cfg.AzureKey != "az-test" {
		t.Errorf("AzureKey = %q", cfg.AzureKey)
	}
	if cfg.AzureRegion != "westeurope" {
		t.Errorf("AzureRegion = %q", cfg.AzureRegion)
	}
	if cfg.AnkiConnectURL != "http://localhost:9999" {
		t.Errorf("AnkiConnectURL = %q", cfg.AnkiConnectURL)
	}
	if cfg.DeckName != "Pruebas" {
		t.Errorf("DeckName = %q", cfg.DeckName)
	}
	if cfg.AudioDir != "/tmp/audios" {
		t.Errorf("AudioDir = %q", cfg.AudioDir)
	}
}

func TestConfig_ApplyEnv_LegacyAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("API_KEY", "sk-legacy")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.OpenAIKey != "sk-legacy" {
		t.Errorf("OpenAIKey = %q, want legacy API_KEY honored", cfg.OpenAIKey)
	}
}

func TestConfig_ApplyEnv_NoOverride(t *testing.T) {
	t.Setenv("ANKI_DECK_NAME", "")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.DeckName != "Chino SRS" {
		t.Errorf("DeckName = %q, empty env vars must not override defaults", cfg.DeckName)
	}
}
