// Package config loads the process configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/stockroom-app/server/internal/agent/budget"
	"github.com/stockroom-app/server/internal/agent/model"
	"github.com/stockroom-app/server/internal/core"
	logx "github.com/stockroom-app/server/pkg/logger"
	pkgredis "github.com/stockroom-app/server/pkg/redis"
)

// AppConfig is every configurable parameter of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Runtime mode signal; ASSISTANT_ENVIRONMENT overrides it for budgeting.
	Environment string `envconfig:"ENVIRONMENT"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres PostgresConfig
	HTTP     HTTPConfig

	// Assistant
	Gemini    model.GeminiConfig
	Assistant model.AssistantConfig
	Budget    budget.Config
}

type PostgresConfig struct {
	DSN          string `envconfig:"DATABASE_URL"`
	MaxOpenConns int    `envconfig:"DATABASE_MAX_OPEN_CONNS" default:"10"`
}

type HTTPConfig struct {
	Addr           string   `envconfig:"HTTP_ADDR" default:":8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	AuthUserHeader string   `envconfig:"AUTH_USER_HEADER" default:"X-User-Id"`
}

// Load reads the given dotenv files, when present, and processes the
// environment into an AppConfig. Variables already set win over the files.
func Load(envFiles ...string) (*AppConfig, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logx.Debug().Str("file", f).Msg("no dotenv file, using process environment")
				continue
			}
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}

// ResolveEnvironment is the environment the budget policy and the logger run
// under.
func (c *AppConfig) ResolveEnvironment() core.Environment {
	return core.ResolveEnvironment(c.Budget.EnvironmentOverride, c.Environment)
}
