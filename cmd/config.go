package cmd

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BDNK1/flowendpoint/plugins/flight"
	"github.com/BDNK1/flowendpoint/runtime"
)

// DefaultConfigFile is read when present; its absence is not an error.
const DefaultConfigFile = "flow-config.yaml"

// Settings is the whole process configuration.
type Settings struct {
	Server runtime.ServerConfig `yaml:"server"`
	Flight flight.Config        `yaml:"flight"`
	Cache  flight.CacheConfig   `yaml:"cache"`
}

// envBinding maps an environment variable onto a section key.
type envBinding struct {
	env     string
	section string
	key     string
}

var envBindings = []envBinding{
	{"PORT", "server", "port"},
	{"ENV", "server", "env"},
	{"LOG_LEVEL", "server", "log_level"},
	{"LOG_FORMAT", "server", "log_format"},
	{"SHUTDOWN_TIMEOUT", "server", "shutdown_timeout"},
	{"TRACE_OUTPUT", "server", "trace_output"},
	{"FLIGHT_SELECTION_API_URL", "flight", "base_url"},
	{"FLIGHT_SELECTION_API_TIMEOUT_MS", "flight", "timeout_ms"},
	{"FLIGHT_SELECTION_PAYMENT_TYPE", "flight", "payment_type"},
	{"FLIGHT_API_DEBUG", "flight", "debug"},
	{"FLIGHT_CACHE_TTL", "cache", "ttl"},
	{"REDIS_ADDR", "cache", "redis_addr"},
	{"REDIS_PASSWORD", "cache", "redis_password"},
	{"REDIS_DB", "cache", "redis_db"},
}

// LoadSettings builds Settings from struct defaults, then the optional YAML
// file, then the environment. Empty environment values are ignored.
func LoadSettings(file string) (*Settings, error) {
	raw, err := readConfigFile(file)
	if err != nil {
		return nil, err
	}

	for _, b := range envBindings {
		value, ok := os.LookupEnv(b.env)
		if !ok || value == "" {
			continue
		}
		section, _ := raw[b.section].(map[string]any)
		if section == nil {
			section = make(map[string]any)
			raw[b.section] = section
		}
		section[b.key] = value
	}

	var settings Settings
	if err := runtime.InitializeConfig(&settings, raw); err != nil {
		return nil, err
	}
	return &settings, nil
}

func readConfigFile(file string) (map[string]any, error) {
	raw := make(map[string]any)
	if file == "" {
		return raw, nil
	}

	content, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", file, err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	resolved, err := runtime.ResolveEnvVars(raw)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", file, err)
	}
	return resolved.(map[string]any), nil
}
