package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "resume-assistant"
)

type Config struct {
	Port        int            `mapstructure:"port"`
	Environment string         `mapstructure:"environment"`
	Resume      string         `mapstructure:"resume"`
	CORS        *CORSConfig    `mapstructure:"cors"`
	RateLimit   *RateConfig    `mapstructure:"rate-limit"`
	AI          *AIConfig      `mapstructure:"ai"`
	Session     *SessionConfig `mapstructure:"session"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

type RateConfig struct {
	Requests int    `mapstructure:"requests"`
	Window   string `mapstructure:"window"`
}

type AIConfig struct {
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max-tokens"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	MaxLogLength int     `mapstructure:"max-log-length"`
}

type SessionConfig struct {
	Timeout         string `mapstructure:"timeout"`
	MaxHistory      int    `mapstructure:"max-history"`
	CleanupInterval string `mapstructure:"cleanup-interval"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-assistant is a backend for a personal resume website with an AI chat assistant",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"port":           "PORT",
		"environment":    "APP_ENV",
		"resume":         "RESUME_PATH",
		"ai.provider":    "AI_PROVIDER",
		"ai.model":       "AI_MODEL",
		"ai.temperature": "AI_TEMPERATURE",
		"ai.max-tokens":  "AI_MAX_TOKENS",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-assistant.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the serve command. Everything has a default or
	// an environment binding, so a missing file is not an error.
	if serveCmd.CalledAs() == "" {
		return
	}

	viper.SetDefault("port", 3001)
	viper.SetDefault("environment", "development")
	viper.SetDefault("resume", "data/resume.json")
	viper.SetDefault("ai.provider", "groq")
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.max-tokens", 1000)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// An explicitly requested file must exist.
		if cfgFile != "" {
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
