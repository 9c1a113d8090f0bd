package cmd

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cv-screener"
)

type Config struct {
	JobDescriptionFile string           `mapstructure:"job-description-file"`
	AI                 *AIConfig        `mapstructure:"ai"`
	Screening          *ScreeningConfig `mapstructure:"screening"`
	Search             *SearchConfig    `mapstructure:"search"`
	Export             *ExportConfig    `mapstructure:"export"`
}

type AIConfig struct {
	Provider          string            `mapstructure:"provider"`
	MaxAttempts       int               `mapstructure:"max-attempts"`
	BackoffBase       time.Duration     `mapstructure:"backoff-base"`
	BackoffMax        time.Duration     `mapstructure:"backoff-max"`
	Cooldown          time.Duration     `mapstructure:"cooldown"`
	RequestsPerMinute int               `mapstructure:"requests-per-minute"`
	MaxLogLength      int               `mapstructure:"max-log-length"`
	OpenRouter        *OpenRouterConfig `mapstructure:"openrouter"`
	Gemini            *GeminiConfig     `mapstructure:"gemini"`
}

type OpenRouterConfig struct {
	APIURL     string `mapstructure:"api-url"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type GeminiConfig struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type ScreeningConfig struct {
	Workers          int           `mapstructure:"workers"`
	MinTextLength    int           `mapstructure:"min-text-length"`
	DocumentCooldown time.Duration `mapstructure:"document-cooldown"`
	MustHave         []string      `mapstructure:"must-have"`
	JobMaxChars      int           `mapstructure:"job-max-chars"`
	ResumeMaxChars   int           `mapstructure:"resume-max-chars"`
}

type SearchConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api-key" json:"-"`
	APIKeyFile  string `mapstructure:"api-key-file"`
	MaxAttempts int    `mapstructure:"max-attempts"`

	// RequestsPerMinute is shared by every screening worker.
	RequestsPerMinute int `mapstructure:"requests-per-minute"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-screener ranks PDF résumés against a job description with a staged LLM analysis",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	for key, envs := range map[string][]string{
		"ai.openrouter.api-key-file": {"OPENROUTER_API_KEY_FILE"},
		"ai.gemini.api-key-file":     {"GEMINI_API_KEY_FILE"},
		"search.api-key-file":        {"SERPER_API_KEY_FILE", "BRAVE_API_KEY_FILE"},
	} {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			log.Fatalf("binding %v environment variables: %v", envs, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "openrouter")
	v.SetDefault("ai.max-attempts", 3)
	v.SetDefault("ai.backoff-base", 2*time.Second)
	v.SetDefault("ai.backoff-max", 10*time.Second)
	v.SetDefault("ai.cooldown", 2*time.Second)
	v.SetDefault("ai.requests-per-minute", 12)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.openrouter.api-url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.openrouter.model", "mistralai/mistral-7b-instruct:free")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")

	v.SetDefault("screening.workers", 1)
	v.SetDefault("screening.min-text-length", 100)
	v.SetDefault("screening.document-cooldown", time.Second)
	v.SetDefault("screening.must-have", []string{})
	v.SetDefault("screening.job-max-chars", 2000)
	v.SetDefault("screening.resume-max-chars", 4000)

	v.SetDefault("search.enabled", true)
	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.max-attempts", 3)
	v.SetDefault("search.requests-per-minute", 20)

	v.SetDefault("export.dir", ".")
}

func initConfig() {
	// Config needed only for run command. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	// .env is optional; it only feeds the environment used by the secret loader.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Defaults are enough when no config file exists in the working directory.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
