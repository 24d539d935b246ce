package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadSettings_Defaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if settings.Server.Port != 3000 {
		t.Errorf("Expected Port=3000, got %d", settings.Server.Port)
	}
	if settings.Flight.TimeoutMS != 5000 {
		t.Errorf("Expected TimeoutMS=5000, got %d", settings.Flight.TimeoutMS)
	}
	if settings.Flight.PaymentType != "ONLINE" {
		t.Errorf("Expected PaymentType='ONLINE', got '%s'", settings.Flight.PaymentType)
	}
	if settings.Flight.BaseURL != "" {
		t.Errorf("Expected empty BaseURL, got '%s'", settings.Flight.BaseURL)
	}
	if settings.Cache.TTL != 15*time.Minute {
		t.Errorf("Expected TTL=15m, got %v", settings.Cache.TTL)
	}
	if settings.Cache.RedisAddr != "" {
		t.Errorf("Expected in-memory cache, got RedisAddr '%s'", settings.Cache.RedisAddr)
	}
}

func TestLoadSettings_FileAndEnvironment(t *testing.T) {
	t.Setenv("FLOWENDPOINT_TEST_API", "https://api.example.com/getflightdata")
	t.Setenv("FLIGHT_SELECTION_API_TIMEOUT_MS", "2500")
	t.Setenv("PORT", "")

	path := writeConfig(t, `
server:
  port: 8081
  log_format: json
flight:
  base_url: ${FLOWENDPOINT_TEST_API}
  timeout_ms: 1000
  payment_type: ${FLOWENDPOINT_TEST_PAYMENT:CASH}
cache:
  ttl: 5m
  redis_addr: localhost:6379
`)

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if settings.Server.Port != 8081 {
		t.Errorf("Expected empty PORT to be ignored, got %d", settings.Server.Port)
	}
	if settings.Server.LogFormat != "json" {
		t.Errorf("Expected LogFormat='json', got '%s'", settings.Server.LogFormat)
	}
	if settings.Flight.BaseURL != "https://api.example.com/getflightdata" {
		t.Errorf("Expected BaseURL from file placeholder, got '%s'", settings.Flight.BaseURL)
	}
	if settings.Flight.TimeoutMS != 2500 {
		t.Errorf("Expected environment to override TimeoutMS, got %d", settings.Flight.TimeoutMS)
	}
	if settings.Flight.PaymentType != "CASH" {
		t.Errorf("Expected placeholder default 'CASH', got '%s'", settings.Flight.PaymentType)
	}
	if settings.Cache.TTL != 5*time.Minute {
		t.Errorf("Expected TTL=5m, got %v", settings.Cache.TTL)
	}
	if settings.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Expected RedisAddr='localhost:6379', got '%s'", settings.Cache.RedisAddr)
	}
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{
			name:    "invalid timeout",
			env:     map[string]string{"FLIGHT_SELECTION_API_TIMEOUT_MS": "soon"},
			wantErr: "failed to apply config values",
		},
		{
			name:    "zero timeout",
			env:     map[string]string{"FLIGHT_SELECTION_API_TIMEOUT_MS": "0"},
			wantErr: "TimeoutMS",
		},
		{
			name:    "bad redis address",
			env:     map[string]string{"REDIS_ADDR": "redis"},
			wantErr: "RedisAddr",
		},
		{
			name:    "unknown log level",
			env:     map[string]string{"LOG_LEVEL": "verbose"},
			wantErr: "LogLevel",
		},
		{
			name:    "unset placeholder",
			file:    "flight:\n  base_url: ${FLOWENDPOINT_TEST_UNSET_URL}\n",
			wantErr: "FLOWENDPOINT_TEST_UNSET_URL",
		},
		{
			name:    "malformed file",
			file:    "server: [\n",
			wantErr: "error unmarshalling config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "absent.yaml")
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			_, err := LoadSettings(path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
