package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/apetrov/resume-assistant/internal/ai"
	"github.com/apetrov/resume-assistant/internal/ai/gemini"
	"github.com/apetrov/resume-assistant/internal/ai/openaiclient"
	"github.com/apetrov/resume-assistant/internal/chat"
	"github.com/apetrov/resume-assistant/internal/logger"
	"github.com/apetrov/resume-assistant/internal/resume"
	"github.com/apetrov/resume-assistant/internal/secrets"
	"github.com/apetrov/resume-assistant/internal/server"
	"github.com/apetrov/resume-assistant/internal/session"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var defaultModels = map[string]string{
	"groq":   "llama-3.3-70b-versatile",
	"openai": "gpt-4o-mini",
	"google": "gemini-2.5-flash",
	"gemini": "gemini-2.5-flash",
}

var keyEnvVars = map[string]string{
	"groq":   "GROQ_API_KEY",
	"openai": "OPENAI_API_KEY",
	"google": "GOOGLE_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resume-assistant HTTP server",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (overrides PORT and the config file)")
	serveCmd.Flags().StringP("resume", "r", "", "path to the resume JSON file")

	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("resume", serveCmd.Flags().Lookup("resume"))
}

// serve wires the full request pipeline and blocks until interrupted.
func serve(_ *cobra.Command) {
	ctx := context.Background()

	// Local development keeps provider keys in a .env file.
	_ = godotenv.Load()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-assistant", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	src, err := resume.Load(config.Resume)
	if err != nil {
		logger.Fatal("loading resume",
			zap.Error(err),
			zap.String("hint", "set RESUME_PATH or the 'resume' key in the configuration file"),
		)
	}

	provider, aiCfg, err := newProvider(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building AI provider", zap.Error(err))
	}

	logger.Info("AI provider ready",
		zap.String("provider", aiCfg.Provider),
		zap.String("model", aiCfg.Model),
	)

	store := session.NewStore(logger, sessionOptions(config.Session)...)
	store.Start()
	defer store.Close()

	maxLogLength := 0
	if config.AI != nil {
		maxLogLength = config.AI.MaxLogLength
	}

	candidate := src.Resume().Contact.Name
	svc := chat.NewService(provider, store, src, candidate, logger, maxLogLength)

	handler := server.New(svc, store, src, logger, serverConfig(config))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Info("listening", zap.Int("port", config.Port), zap.String("environment", config.Environment))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-notifyCtx.Done():
		logger.Info("shutting down", zap.Duration("grace", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}
}

// newProvider builds the configured AI backend. The gemini provider talks the
// native genai API; groq, openai and google go through the OpenAI-compatible
// chat-completion endpoint.
func newProvider(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Provider, ai.Config, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	name := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if name == "" {
		name = "groq"
	}

	envVar, ok := keyEnvVars[name]
	if !ok {
		return nil, ai.Config{}, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.FromEnv(name+" api key", envVar, cfg.APIKeyFile))
	if err != nil {
		return nil, ai.Config{}, fmt.Errorf("%w (set %s or ai.api-key-file)", err, envVar)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModels[name]
	}

	aiCfg := ai.Config{
		Provider:    name,
		Model:       model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		APIKey:      apiKey,
	}

	if name == "gemini" {
		client, err := gemini.New(ctx, aiCfg)
		if err != nil {
			return nil, ai.Config{}, err
		}
		return client, aiCfg, nil
	}

	client, err := openaiclient.New(aiCfg, logger)
	if err != nil {
		return nil, ai.Config{}, err
	}
	return client, aiCfg, nil
}

func sessionOptions(cfg *SessionConfig) []session.Option {
	if cfg == nil {
		return nil
	}

	opts := make([]session.Option, 0, 3)
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		opts = append(opts, session.WithTimeout(d))
	}
	if cfg.MaxHistory > 0 {
		opts = append(opts, session.WithMaxHistory(cfg.MaxHistory))
	}
	if d, err := time.ParseDuration(cfg.CleanupInterval); err == nil && d > 0 {
		opts = append(opts, session.WithCleanupInterval(d))
	}

	return opts
}

func serverConfig(cfg *Config) server.Config {
	out := server.Config{Environment: cfg.Environment}

	if cfg.CORS != nil {
		out.CORSOrigins = cfg.CORS.Origins
	}
	if len(out.CORSOrigins) == 0 {
		out.CORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}

	out.RateLimitRequests = 100
	out.RateLimitWindow = 15 * time.Minute
	if cfg.RateLimit != nil {
		if cfg.RateLimit.Requests > 0 {
			out.RateLimitRequests = cfg.RateLimit.Requests
		}
		if d, err := time.ParseDuration(cfg.RateLimit.Window); err == nil && d > 0 {
			out.RateLimitWindow = d
		}
	}

	return out
}
