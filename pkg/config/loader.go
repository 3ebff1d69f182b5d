package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment variable the loader reads.
const EnvPrefix = "AUTOPROOF"

// Loader builds a Config from defaults, an optional file, and environment
// overrides.
type Loader struct {
	envPrefix string
}

func NewLoader() *Loader {
	return &Loader{envPrefix: EnvPrefix}
}

// Load returns the effective configuration. configPath may be empty; env
// variables always apply last. OPENAI_API_KEY is honored as an unprefixed
// fallback for the LLM key.
func (l *Loader) Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if err := l.loadFromFile(configPath, cfg); err != nil {
		return nil, err
	}
	if err := l.loadFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, err
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDotenv reads a .env file into the process environment before Load
// runs. A missing file is not an error.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func (l *Loader) loadFromFile(configPath string, cfg *Config) error {
	if configPath == "" {
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", configPath, err)
	}

	switch ext := strings.ToLower(filepath.Ext(configPath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse YAML config %s: %w", configPath, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse JSON config %s: %w", configPath, err)
		}
	default:
		return fmt.Errorf("unsupported config format %s (supported: .yaml, .yml, .json)", ext)
	}
	return nil
}

// loadFromEnv walks the config struct and overrides fields from environment
// variables named PREFIX_SECTION_FIELD, using the env tag (falling back to
// the yaml tag) for field names.
func (l *Loader) loadFromEnv(value reflect.Value, prefix string) error {
	structType := value.Type()
	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		fieldType := structType.Field(i)
		if !field.CanSet() {
			continue
		}

		name := fieldType.Tag.Get("env")
		if name == "" {
			name = fieldType.Tag.Get("yaml")
			if idx := strings.Index(name, ","); idx >= 0 {
				name = name[:idx]
			}
			if name == "" {
				name = fieldType.Name
			}
		}
		name = strings.ToUpper(name)
		if prefix != "" {
			name = prefix + "_" + name
		}

		if field.Kind() == reflect.Struct {
			if err := l.loadFromEnv(field, name); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(l.envPrefix + "_" + name)
		if envValue == "" {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("env %s_%s: %w", l.envPrefix, name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Bool:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool %q", value)
		}
		field.SetBool(parsed)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration %q", value)
			}
			field.SetInt(int64(duration))
			return nil
		}
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int %q", value)
		}
		field.SetInt(parsed)

	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q", value)
		}
		field.SetFloat(parsed)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))

	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
