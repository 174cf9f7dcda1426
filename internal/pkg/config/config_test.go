package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "dev-secret",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Token.TTL != 24*time.Hour || cfg.Token.Issuer != "identity-service" {
		t.Fatalf("unexpected token defaults: %+v", cfg.Token)
	}
	if cfg.Mongo.Database != "identity" || cfg.Audit.Workers != 4 {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Mongo, cfg.Audit)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":              "production",
		"JWT_SECRET":       strings.Repeat("k", 32),
		"TOKEN_TTL":        "90m",
		"GOOGLE_CLIENT_ID": "google-id",
		"AUDIT_WORKERS":    "8",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if cfg.Token.TTL != 90*time.Minute || cfg.OAuth2.GoogleClientID != "google-id" || cfg.Audit.Workers != 8 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadWith_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret":          {},
		"short production secret": {"ENV": "production", "JWT_SECRET": "short"},
		"zero ttl":                {"JWT_SECRET": "dev", "TOKEN_TTL": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
