package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hirescreen/hirescreen/internal/ai"
	"github.com/hirescreen/hirescreen/internal/ai/gemini"
	"github.com/hirescreen/hirescreen/internal/ai/openai"
	"github.com/hirescreen/hirescreen/internal/applications"
	"github.com/hirescreen/hirescreen/internal/cache"
	"github.com/hirescreen/hirescreen/internal/jobs"
	"github.com/hirescreen/hirescreen/internal/logger"
	"github.com/hirescreen/hirescreen/internal/screening"
	"github.com/hirescreen/hirescreen/internal/secrets"
	"github.com/hirescreen/hirescreen/internal/store"
)

// appContext bundles the wired services every command runs against. The
// acting user comes from --as-user; ownership checks happen in the services.
type appContext struct {
	logger *zap.Logger
	config *Config

	store store.Store
	cache cache.Cache

	jobs         *jobs.Service
	applications *applications.Service
	engine       *screening.Engine

	userID string
}

// newApp builds the service graph from config. Commands needing the
// completion service set withCompleter; the rest skip provider setup.
func newApp(ctx context.Context, withCompleter bool) (*appContext, error) {
	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	pretty, _ := json.MarshalIndent(config, "", "  ")
	lg.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	st, err := newStore(config, lg)
	if err != nil {
		return nil, err
	}
	c := cache.NewMemory()

	var completer ai.Completer
	var timeout time.Duration
	if withCompleter {
		completer, timeout, err = newCompleter(ctx, config.AI, lg)
		if err != nil {
			return nil, err
		}
	}

	return &appContext{
		logger:       lg,
		config:       config,
		store:        st,
		cache:        c,
		jobs:         jobs.NewService(st, c, lg),
		applications: applications.NewService(st, c, lg),
		engine:       screening.NewEngine(st, completer, c, lg, timeout),
		userID:       viper.GetString("as-user"),
	}, nil
}

// requireUser returns the acting user id or an error when --as-user is unset.
func (a *appContext) requireUser() (string, error) {
	if strings.TrimSpace(a.userID) == "" {
		return "", errors.New("--as-user is required for this command")
	}
	return a.userID, nil
}

func newStore(config *Config, lg *zap.Logger) (store.Store, error) {
	var db *DatabaseConfig
	if config != nil {
		db = config.Database
	}
	if db == nil {
		db = &DatabaseConfig{}
	}

	dsn, err := secrets.Load(secrets.Source{
		Name:  "database dsn",
		Value: db.DSN,
		Env:   "HIRESCREEN_DATABASE_DSN",
		File:  db.DSNFile,
	})
	if err != nil {
		lg.Warn("no database configured, using the in-memory store; records will not survive this process")
		return store.NewMemory(), nil
	}

	st, err := store.OpenGorm(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

func newCompleter(ctx context.Context, config *AIConfig, lg *zap.Logger) (ai.Completer, time.Duration, error) {
	if config == nil {
		config = &AIConfig{}
	}
	timeout := time.Duration(config.TimeoutSeconds) * time.Second

	provider := strings.ToLower(strings.TrimSpace(config.Provider))
	switch provider {
	case "", "gemini":
		cfg := config.Gemini
		if cfg == nil {
			cfg = &GeminiConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  cfg.APIKeyFile,
		})
		if err != nil {
			return nil, 0, err
		}
		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, lg)
		if err != nil {
			return nil, 0, err
		}
		lg.Debug("using gemini completion provider", zap.String("model", generator.Model()))
		return generator, timeout, nil

	case "openai":
		cfg := config.OpenAI
		if cfg == nil {
			cfg = &OpenAIConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.APIKey,
			Env:   "OPENAI_API_KEY",
			File:  cfg.APIKeyFile,
		})
		if err != nil {
			return nil, 0, err
		}
		client, err := openai.New(apiKey, cfg.Model, lg)
		if err != nil {
			return nil, 0, err
		}
		lg.Debug("using openai completion provider", zap.String("model", client.Model()))
		return client, timeout, nil
	}

	return nil, 0, fmt.Errorf("unknown ai provider %q", config.Provider)
}

// printJSON renders command output for both humans and scripts.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
