package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	registerCustomValidators()
}

// InitializeConfig fills config from its default tags, overlays rawValues
// (decoded by yaml tag, weakly typed) and validates the result.
func InitializeConfig(config any, rawValues map[string]any) error {
	configType := fmt.Sprintf("%T", config)

	if err := ApplyDefaults(config); err != nil {
		slog.Error("Config defaults failed", "config_type", configType, "error", err)
		return fmt.Errorf("failed to apply defaults: %w", err)
	}

	if len(rawValues) > 0 {
		if err := mapToStructFromYAML(rawValues, config); err != nil {
			slog.Error("Config values rejected", "config_type", configType, "error", err)
			return fmt.Errorf("failed to apply config values: %w", err)
		}
	}

	target := reflect.ValueOf(config)
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	if err := validateConfig(target.Interface()); err != nil {
		slog.Error("Config validation failed", "config_type", configType, "error", err)
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

func registerCustomValidators() {
	// hostname_port validates "host:port" format with numeric port
	validate.RegisterValidation("hostname_port", func(fl validator.FieldLevel) bool {
		addr := fl.Field().String()
		host, port, err := net.SplitHostPort(addr)
		if err != nil || host == "" || port == "" {
			return false
		}
		// Verify port is a valid number in range 1-65535
		_, err = net.LookupPort("tcp", port)
		return err == nil
	})

	// http_url accepts absolute http and https URLs only
	validate.RegisterValidation("http_url", func(fl validator.FieldLevel) bool {
		return IsHTTPURL(fl.Field().String())
	})
}

// IsHTTPURL reports whether value parses as an absolute http(s) URL.
func IsHTTPURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func ApplyDefaults(config any) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := defaults.Set(config); err != nil {
		return fmt.Errorf("failed to apply default values: %w", err)
	}

	return nil
}

func validateConfig(config any) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s: %q fails %s", fieldErr.Namespace(), fmt.Sprint(fieldErr.Value()), fieldErr.Tag()))
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(messages, "; "))
}

// envVarPattern matches ${VAR} and ${VAR:default} syntax
var envVarPattern = regexp.MustCompile(`^\$\{([A-Z_][A-Z0-9_]*)(:[^}]*)?\}$`)

// ResolveEnvVars walks a decoded config tree and replaces ${VAR} and
// ${VAR:default} strings with environment values. A ${VAR} without default
// whose variable is unset is an error.
func ResolveEnvVars(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return resolveEnvVar(v)
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, item := range v {
			resolved, err := ResolveEnvVars(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			result[k] = resolved
		}
		return result, nil
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			resolved, err := ResolveEnvVars(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			result[i] = resolved
		}
		return result, nil
	default:
		return value, nil
	}
}

func resolveEnvVar(value string) (any, error) {
	matches := envVarPattern.FindStringSubmatch(value)
	if matches == nil {
		return value, nil
	}

	varName := matches[1]
	defaultPart := matches[2]

	if envValue, exists := os.LookupEnv(varName); exists {
		return envValue, nil
	}

	if defaultPart != "" {
		return strings.TrimPrefix(defaultPart, ":"), nil
	}

	return nil, fmt.Errorf("required environment variable not set: %s", varName)
}
