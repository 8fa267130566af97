package models

import (
	"encoding/json"
	"os"
	"path/filepath"

	"chinosrs/internal/config"
)

// Config holds pipeline settings. Values load from the JSON config file and
// can be overridden by environment variables (typically via a .env file).
type Config struct {
	// Directories
	OutputDir string `json:"output_dir"` // CSVs, note caches, deck dumps
	AudioDir  string `json:"audio_dir"`  // generated MP3s

	// OpenAI enrichment
	OpenAIKey   string `json:"openai_key"`
	OpenAIModel string `json:"openai_model"`

	// TTS engine selection (gtts, azure)
	TTSEngine string `json:"tts_engine"`

	// Google TTS settings
	GoogleTTSLang string `json:"google_tts_lang"`

	// Azure Cognitive Services settings
	AzureKey         string  `json:"azure_tts_key"`
	AzureRegion      string  `json:"azure_tts_region"`
	AzureVoice       string  `json:"azure_tts_voice"`
	AzureSpeed       float64 `json:"azure_tts_speed"`        // 0.5 = half speed, 1.0 = normal
	AzureRandomVoice bool    `json:"azure_tts_random_voice"` // pick a random voice per file

	// AnkiConnect settings
	AnkiConnectURL string `json:"anki_connect_url"`
	DeckName       string `json:"deck_name"`
}

func DefaultConfig() *Config {
	return &Config{
		OutputDir: "outputs",
		AudioDir:  filepath.Join("resources", "audios"),

		OpenAIModel: config.OpenAIEnrichModel,

		TTSEngine:     "gtts",
		GoogleTTSLang: config.GoogleTTSLang,

		AzureRegion: config.DefaultAzureRegion,
		AzureVoice:  config.DefaultAzureVoice,
		AzureSpeed:  1.0,

		AnkiConnectURL: config.AnkiConnectURL,
		DeckName:       config.DefaultDeckName,
	}
}

func (c *Config) ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "chinosrs", "config.json")
}

// LoadConfig reads the config file, falling back to defaults when it does not
// exist, then applies environment overrides.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(cfg.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the config. Credentials live
// in the environment (.env), never in the config file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" {
		c.OpenAIKey = v
	}
	if v := os.Getenv("AZURE_TTS_KEY"); v != "" {
		c.AzureKey = v
	}
	if v := os.Getenv("AZURE_TTS_REGION"); v != "" {
		c.AzureRegion = v
	}
	if v := os.Getenv("ANKI_CONNECT_URL"); v != "" {
		c.AnkiConnectURL = v
	}
	if v := os.Getenv("ANKI_DECK_NAME"); v != "" {
		c.DeckName = v
	}
	if v := os.Getenv("ANKI_AUDIO_DIR"); v != "" {
		c.AudioDir = v
	}
}

func (c *Config) Save() error {
	configPath := c.ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
