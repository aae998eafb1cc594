package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "GRPC_PORT", "CART_STORE", "REDIS_ADDR", "SQLITE_PATH", "CART_STORAGE_KEY", "LOG_LEVEL", "ENABLE_TRACING", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	want := config{
		Port:         "8080",
		GRPCPort:     "7070",
		Backend:      backendMemory,
		SQLitePath:   "cart.db",
		StorageKey:   "@GoMarketplace:products",
		LogLevel:     "info",
		OTLPEndpoint: "localhost:4317",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("loadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigRedis(t *testing.T) {
	t.Setenv("CART_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "redis-cart")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Backend != backendRedis {
		t.Errorf("Backend = %q, want %q", cfg.Backend, backendRedis)
	}
	if cfg.RedisAddr != "redis-cart:6379" {
		t.Errorf("RedisAddr = %q, want redis-cart:6379", cfg.RedisAddr)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"redis without address": {"CART_STORE": "redis", "REDIS_ADDR": ""},
		"unknown backend":       {"CART_STORE": "floppy"},
		"bad bool":              {"ENABLE_TRACING": "maybe"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := loadConfig(); err == nil {
				t.Error("loadConfig() succeeded, want error")
			}
		})
	}
}
