package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL   string  `yaml:"base_url"`
		Model     string  `yaml:"model"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"llm"`

	Secrets struct {
		Endpoint   string `yaml:"endpoint"`
		SecretName string `yaml:"secret_name"`
		EnvVar     string `yaml:"env_var"`
		MinLength  int    `yaml:"min_length"`
		Prefix     string `yaml:"prefix"`
	} `yaml:"secrets"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Analyzer struct {
		MaxDocuments     int `yaml:"max_documents"`
		PerDocumentChars int `yaml:"per_document_chars"`
		AggregateChars   int `yaml:"aggregate_chars"`
		MaxTokens        int `yaml:"max_tokens"`
		TimeoutSeconds   int `yaml:"timeout_seconds"`
	} `yaml:"analyzer"`

	Synthesizer struct {
		MaxTokens      int `yaml:"max_tokens"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
		MinPromptChars int `yaml:"min_prompt_chars"`
	} `yaml:"synthesizer"`

	Knowledge struct {
		MaxDocuments     int `yaml:"max_documents"`
		PerDocumentChars int `yaml:"per_document_chars"`
	} `yaml:"knowledge"`

	Server struct {
		Port               string   `yaml:"port"`
		ChatModel          string   `yaml:"chat_model"`
		ChatTokens         int      `yaml:"chat_tokens"`
		ChatTimeoutSeconds int      `yaml:"chat_timeout_seconds"`
		MaxUploadMB        int64    `yaml:"max_upload_mb"`
		AllowOrigins       []string `yaml:"allow_origins"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// A .env next to the binary is optional; ignore a missing file.
	_ = godotenv.Load()

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/chatforge/config.yaml"),
			"/etc/chatforge/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "claude-3-haiku-20240307"
	}
	if config.LLM.RateLimit == 0 {
		config.LLM.RateLimit = 2.0
	}

	if config.Secrets.SecretName == "" {
		config.Secrets.SecretName = "claude-api-key"
	}
	if config.Secrets.EnvVar == "" {
		config.Secrets.EnvVar = "ANTHROPIC_API_KEY"
	}
	if config.Secrets.MinLength == 0 {
		config.Secrets.MinLength = 50
	}
	if config.Secrets.Prefix == "" {
		config.Secrets.Prefix = "sk-ant-"
	}

	if config.Analyzer.MaxDocuments == 0 {
		config.Analyzer.MaxDocuments = 3
	}
	if config.Analyzer.PerDocumentChars == 0 {
		config.Analyzer.PerDocumentChars = 2000
	}
	if config.Analyzer.AggregateChars == 0 {
		config.Analyzer.AggregateChars = 6000
	}
	if config.Analyzer.MaxTokens == 0 {
		config.Analyzer.MaxTokens = 1000
	}
	if config.Analyzer.TimeoutSeconds == 0 {
		config.Analyzer.TimeoutSeconds = 30
	}

	if config.Synthesizer.MaxTokens == 0 {
		config.Synthesizer.MaxTokens = 800
	}
	if config.Synthesizer.TimeoutSeconds == 0 {
		config.Synthesizer.TimeoutSeconds = 30
	}
	if config.Synthesizer.MinPromptChars == 0 {
		config.Synthesizer.MinPromptChars = 20
	}

	if config.Knowledge.MaxDocuments == 0 {
		config.Knowledge.MaxDocuments = 3
	}
	if config.Knowledge.PerDocumentChars == 0 {
		config.Knowledge.PerDocumentChars = 800
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Server.ChatModel == "" {
		config.Server.ChatModel = config.LLM.Model
	}
	if config.Server.ChatTokens == 0 {
		config.Server.ChatTokens = 500
	}
	if config.Server.ChatTimeoutSeconds == 0 {
		config.Server.ChatTimeoutSeconds = 30
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 10
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if endpoint := os.Getenv("SECRETS_ENDPOINT"); endpoint != "" {
		config.Secrets.Endpoint = endpoint
	}
	if baseURL := os.Getenv("ANTHROPIC_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}
