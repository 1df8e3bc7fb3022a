package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "lexfirma_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("PAYMENT_GATEWAY_URL", "https://gateway.example")
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Payment.GatewayURL != "https://gateway.example" {
		t.Fatalf("unexpected gateway URL: %q", cfg.Payment.GatewayURL)
	}
}

func TestLoadConfig_PollingDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Payment.PollInterval != 3*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.Payment.PollInterval)
	}
	if cfg.Payment.PollMaxAttempts != 40 {
		t.Fatalf("unexpected poll attempts: %d", cfg.Payment.PollMaxAttempts)
	}
	if cfg.Payment.PollMaxElapsed != 120*time.Second {
		t.Fatalf("unexpected poll ceiling: %v", cfg.Payment.PollMaxElapsed)
	}
}
