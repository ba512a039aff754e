package main

import (
	"log/slog"
	"time"

	"github.com/chromabet/backend/internal/money"
)

// Store backends.
const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
)

// The app runs with zero configuration: in-memory store, port 8080,
// JSON logs at INFO.
type apiConfig struct {
	Port            uint16        `env:"PORT"                 envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"        envDefault:"INFO"`
	LogFormat       string        `env:"APP_LOG_FORMAT"       envDefault:"json"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// memory (default) or postgres; PG_DSN is required for postgres.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	PostgresDSN  string `env:"PG_DSN"        envDefault:""`

	DemoUsername string      `env:"APP_DEMO_USER"    envDefault:"demo_user"`
	DemoBalance  money.Cents `env:"APP_DEMO_BALANCE" envDefault:"1250.00"`
}
