package bookring

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bookring/bookring/pkg/store"
	"github.com/bookring/bookring/pkg/store/memory"
	"github.com/bookring/bookring/pkg/store/postgres"
	"github.com/bookring/bookring/pkg/store/surrealdb"
)

// Config holds application configuration. Values come from environment
// variables with flag overrides; see Parse.
type Config struct {
	// StoreBackend selects the storage implementation: "postgres",
	// "surrealdb", or "memory" (dev mode, nothing survives a restart).
	StoreBackend string

	PostgresDSN string

	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	ServerPort string
}

// App holds the application state: the store, the logger, and the
// token verifier the HTTP layer resolves acting users with.
type App struct {
	store    store.Store
	config   *Config
	logger   zerolog.Logger
	verifier TokenVerifier
}

// New creates an application instance, connecting to the configured
// storage backend.
func New(config *Config) (*App, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	var appStore store.Store
	var err error

	switch config.StoreBackend {
	case "surrealdb":
		appStore, err = surrealdb.NewSurrealStore(
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		logger.Info().Str("backend", "surrealdb").Msg("connected to store")
	case "postgres":
		appStore, err = postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info().Str("backend", "postgres").Msg("connected to store")
	case "memory":
		appStore = memory.New()
		logger.Warn().Msg("using in-memory store, data will not survive a restart")
	default:
		return nil, fmt.Errorf("unknown store backend: %q", config.StoreBackend)
	}

	return &App{
		store:    appStore,
		config:   config,
		logger:   logger,
		verifier: DevTokenVerifier{},
	}, nil
}

// NewWithStore builds an App around an existing store. Used by tests.
func NewWithStore(s store.Store, config *Config) *App {
	return &App{
		store:    s,
		config:   config,
		logger:   zerolog.Nop(),
		verifier: DevTokenVerifier{},
	}
}

// Close closes the application and its resources
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the underlying store (useful for testing)
func (a *App) Store() store.Store {
	return a.store
}

// getEnv retrieves an environment variable with a fallback default.
// Empty values are treated the same as unset ones.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
