package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/c360/logdash/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOGDASH"

// Loader merges configuration layers.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	getenv     func(string) string
}

// NewLoader creates a loader with no layers and validation off.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: EnvPrefix,
		getenv:    os.Getenv,
	}
}

// AddLayer appends a JSON file. Later layers win.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation runs Config.Validate at the end of Load.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// Load applies defaults, layers, environment overrides and validation.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		raw, err := l.loadRawJSON(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("load %s", path))
		}
		merged, err := mergeFromMap(cfg, raw)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("merge %s", path))
		}
		cfg = merged
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateJSONDepth(data); err != nil {
		return nil, fmt.Errorf("invalid JSON structure: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// mergeFromMap overrides only the fields present in override.
func mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}
	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

func (l *Loader) env(name string) (string, error) {
	key := l.envPrefix + "_" + name
	val := l.getenv(key)
	if err := validateEnvVar(key, val); err != nil {
		return "", errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "read "+key)
	}
	return val, nil
}

func (l *Loader) applyEnvOverrides(cfg *Config) error {
	strs := []struct {
		name   string
		target *string
	}{
		{"STREAM_URL", &cfg.Stream.URL},
		{"QUERY_ENDPOINT", &cfg.Query.Endpoint},
		{"QUERY_TIME_RANGE", &cfg.Query.TimeRange},
		{"STORAGE_BACKEND", &cfg.Storage.Backend},
		{"NATS_URL", &cfg.Storage.NATSURL},
		{"STORAGE_BUCKET", &cfg.Storage.Bucket},
		{"METRICS_ADDR", &cfg.Metrics.Addr},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
	}
	for _, s := range strs {
		val, err := l.env(s.name)
		if err != nil {
			return err
		}
		if val != "" {
			*s.target = val
		}
	}

	ints := []struct {
		name   string
		target *int
	}{
		{"INGEST_CAPACITY", &cfg.Ingest.Capacity},
		{"QUERY_LIMIT", &cfg.Query.Limit},
	}
	for _, i := range ints {
		val, err := l.env(i.name)
		if err != nil {
			return err
		}
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "parse "+l.envPrefix+"_"+i.name)
		}
		*i.target = n
	}

	val, err := l.env("STORAGE_COMPRESS")
	if err != nil {
		return err
	}
	if val != "" {
		compress, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "parse "+l.envPrefix+"_STORAGE_COMPRESS")
		}
		cfg.Storage.Compress = compress
	}

	val, err = l.env("METRICS_ENABLED")
	if err != nil {
		return err
	}
	if val != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "parse "+l.envPrefix+"_METRICS_ENABLED")
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}
