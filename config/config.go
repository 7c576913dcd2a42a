package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	App       App
	Server    Server
	Storage   Storage
	Whisper   Whisper
	Summarize Summarize
	Embedding Embedding
}

type App struct {
	Environment string
}

type Server struct {
	HttpPort string
}

type Storage struct {
	UploadDir string
	DataDir   string
	IndexDir  string
	WatchDir  string
}

type Whisper struct {
	BinaryPath string
	ModelPath  string
	Language   string
	Threads    int
}

type Summarize struct {
	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	Temperature     float64
	TimeoutSeconds  int
}

type Embedding struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Load reads configuration from the environment. Every knob is optional and
// falls back to a local default.
func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", "develop")
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("INDEX_DIR", "index")
	viper.SetDefault("WATCH_DIR", "")

	viper.SetDefault("WHISPER_BIN", "whisper-cli")
	viper.SetDefault("WHISPER_MODEL", "models/ggml-tiny.bin")
	viper.SetDefault("WHISPER_LANGUAGE", "auto")
	viper.SetDefault("WHISPER_THREADS", 4)

	viper.SetDefault("DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	viper.SetDefault("DEEPSEEK_MODEL", "deepseek-reasoner")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("SUMMARIZE_TEMPERATURE", 0.1)
	viper.SetDefault("SUMMARIZE_TIMEOUT_SECONDS", 180)

	viper.SetDefault("EMBEDDING_BASE_URL", "")
	viper.SetDefault("EMBEDDING_API_KEY", "")
	viper.SetDefault("EMBEDDING_MODEL", "nomic-embed-text")

	return &Config{
		App: App{
			Environment: viper.GetString("APP_ENV"),
		},
		Server: Server{
			HttpPort: viper.GetString("PORT"),
		},
		Storage: Storage{
			UploadDir: viper.GetString("UPLOAD_DIR"),
			DataDir:   viper.GetString("DATA_DIR"),
			IndexDir:  viper.GetString("INDEX_DIR"),
			WatchDir:  viper.GetString("WATCH_DIR"),
		},
		Whisper: Whisper{
			BinaryPath: viper.GetString("WHISPER_BIN"),
			ModelPath:  viper.GetString("WHISPER_MODEL"),
			Language:   viper.GetString("WHISPER_LANGUAGE"),
			Threads:    viper.GetInt("WHISPER_THREADS"),
		},
		Summarize: Summarize{
			DeepSeekAPIKey:  viper.GetString("DEEPSEEK_API_KEY"),
			DeepSeekBaseURL: viper.GetString("DEEPSEEK_BASE_URL"),
			DeepSeekModel:   viper.GetString("DEEPSEEK_MODEL"),
			OpenAIAPIKey:    viper.GetString("OPENAI_API_KEY"),
			OpenAIBaseURL:   viper.GetString("OPENAI_BASE_URL"),
			OpenAIModel:     viper.GetString("OPENAI_MODEL"),
			GeminiAPIKey:    viper.GetString("GEMINI_API_KEY"),
			GeminiModel:     viper.GetString("GEMINI_MODEL"),
			Temperature:     viper.GetFloat64("SUMMARIZE_TEMPERATURE"),
			TimeoutSeconds:  viper.GetInt("SUMMARIZE_TIMEOUT_SECONDS"),
		},
		Embedding: Embedding{
			BaseURL: viper.GetString("EMBEDDING_BASE_URL"),
			APIKey:  viper.GetString("EMBEDDING_API_KEY"),
			Model:   viper.GetString("EMBEDDING_MODEL"),
		},
	}, nil
}
