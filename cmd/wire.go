package cmd

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	tomlcache "github.com/stackgnosis/sg-cli/internal/adapters/cache/toml"
	diskvstore "github.com/stackgnosis/sg-cli/internal/adapters/credentials/diskv"
	"github.com/stackgnosis/sg-cli/internal/adapters/gateway"
	"github.com/stackgnosis/sg-cli/internal/adapters/render/toast"
	"github.com/stackgnosis/sg-cli/internal/application"
	"github.com/stackgnosis/sg-cli/internal/ports"
)

type app struct {
	session *application.Session
	gateway *gateway.Client
	bus     *toast.Bus
	cache   ports.EntryCache
	wsURL   string
	logger  *slog.Logger
}

func wireApp() (*app, error) {
	logger := newLogger()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cache, err := tomlcache.NewCache(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire entry cache: %w", err)
	}

	store := diskvstore.NewStore(filepath.Join(homeDir, ".config", "sg", "credentials"))

	session := application.NewSession(store, application.WithLogger(logger))

	apiURL := envOrDefault("SG_API_URL", "http://localhost:8000")
	wsURL := os.Getenv("SG_WS_URL")
	if wsURL == "" {
		wsURL, err = websocketURLFor(apiURL)
		if err != nil {
			return nil, err
		}
	}

	client, err := gateway.New(apiURL, session.Token, gateway.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("wire api gateway: %w", err)
	}

	return &app{
		session: session,
		gateway: client,
		bus:     toast.NewBus(ports.SystemClock{}, logger),
		cache:   cache,
		wsURL:   wsURL,
		logger:  logger,
	}, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("SG_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// websocketURLFor derives the notification endpoint from the API base
// URL when SG_WS_URL is not set explicitly.
func websocketURLFor(apiURL string) (string, error) {
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}

	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("cannot derive websocket url from scheme %q", parsed.Scheme)
	}
	parsed.Path = ""

	return parsed.String(), nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
