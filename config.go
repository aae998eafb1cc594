package main

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/norun9/gomarketplace-cart/cartstore"
)

const (
	backendMemory = "memory"
	backendRedis  = "redis"
	backendSQLite = "sqlite"
)

type config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	GRPCPort      string `env:"GRPC_PORT" envDefault:"7070"`
	Backend       string `env:"CART_STORE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"cart.db"`
	StorageKey    string `env:"CART_STORAGE_KEY" envDefault:"@GoMarketplace:products"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing bool   `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
}

func loadConfig() (config, error) {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))

	switch cfg.Backend {
	case backendMemory, backendSQLite:
	case backendRedis:
		if cfg.RedisAddr == "" {
			return config{}, fmt.Errorf("REDIS_ADDR is required when CART_STORE=%s", backendRedis)
		}
		// Add the default port only when none is given.
		if !strings.Contains(cfg.RedisAddr, ":") {
			cfg.RedisAddr += ":6379"
		}
	default:
		return config{}, fmt.Errorf("unknown CART_STORE %q", cfg.Backend)
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = cartstore.DefaultStorageKey
	}
	return cfg, nil
}
