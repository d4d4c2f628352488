package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/core/ports/driving"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FEDLEDGER_"

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyDataDir           = "data_dir"
	keyRawDir            = "raw_dir"
	keyProcessedDir      = "processed_dir"
	keyMetadataDir       = "metadata_dir"
	keySaveRaw           = "save_raw"
	keyOverwrite         = "overwrite"
	keyParallel          = "parallel"
	keyMaxWorkers        = "max_workers"
	keyWriteMode         = "write_mode"
	keyLogLevel          = "log_level"
	keyLogJSON           = "log_json"
	keyCacheDir          = "cache_dir"
	keyUserAgent         = "user_agent"
	keyHTTPTimeout       = "http.timeout"
	keyRequestsPerSecond = "http.requests_per_second"
	keyMetricsFile       = "metrics.file"
)

// setting binds a key to a Settings field.
type setting struct {
	apply func(s *domain.Settings, raw string) error
	get   func(s domain.Settings) any
}

var settingsTable = map[string]setting{
	keyDataDir:      stringSetting(func(s *domain.Settings) *string { return &s.DataDir }),
	keyRawDir:       stringSetting(func(s *domain.Settings) *string { return &s.RawDir }),
	keyProcessedDir: stringSetting(func(s *domain.Settings) *string { return &s.ProcessedDir }),
	keyMetadataDir:  stringSetting(func(s *domain.Settings) *string { return &s.MetadataDir }),
	keySaveRaw:      boolSetting(func(s *domain.Settings) *bool { return &s.SaveRaw }),
	keyOverwrite:    boolSetting(func(s *domain.Settings) *bool { return &s.Overwrite }),
	keyParallel:     boolSetting(func(s *domain.Settings) *bool { return &s.Parallel }),
	keyMaxWorkers: {
		apply: func(s *domain.Settings, raw string) error {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("not an integer: %q", raw)
			}
			s.MaxWorkers = n
			return nil
		},
		get: func(s domain.Settings) any { return s.MaxWorkers },
	},
	keyWriteMode: {
		apply: func(s *domain.Settings, raw string) error {
			mode := domain.WriteMode(strings.ToLower(raw))
			if !mode.IsValid() {
				return fmt.Errorf("must be append or overwrite, got %q", raw)
			}
			s.WriteMode = mode
			return nil
		},
		get: func(s domain.Settings) any { return string(s.WriteMode) },
	},
	keyLogLevel:  stringSetting(func(s *domain.Settings) *string { return &s.LogLevel }),
	keyLogJSON:   boolSetting(func(s *domain.Settings) *bool { return &s.LogJSON }),
	keyCacheDir:  stringSetting(func(s *domain.Settings) *string { return &s.CacheDir }),
	keyUserAgent: stringSetting(func(s *domain.Settings) *string { return &s.UserAgent }),
	keyHTTPTimeout: {
		apply: func(s *domain.Settings, raw string) error {
			d, err := parseDuration(raw)
			if err != nil {
				return err
			}
			s.HTTPTimeout = d
			return nil
		},
		get: func(s domain.Settings) any { return s.HTTPTimeout.String() },
	},
	keyRequestsPerSecond: {
		apply: func(s *domain.Settings, raw string) error {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("not a number: %q", raw)
			}
			s.RequestsPerSecond = f
			return nil
		},
		get: func(s domain.Settings) any { return s.RequestsPerSecond },
	},
	keyMetricsFile: stringSetting(func(s *domain.Settings) *string { return &s.MetricsFile }),
}

func stringSetting(field func(*domain.Settings) *string) setting {
	return setting{
		apply: func(s *domain.Settings, raw string) error {
			*field(s) = raw
			return nil
		},
		get: func(s domain.Settings) any { return *field(&s) },
	}
}

func boolSetting(field func(*domain.Settings) *bool) setting {
	return setting{
		apply: func(s *domain.Settings, raw string) error {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("not a boolean: %q", raw)
			}
			*field(s) = b
			return nil
		},
		get: func(s domain.Settings) any { return *field(&s) },
	}
}

// parseDuration accepts Go durations ("45s") or plain seconds ("45").
func parseDuration(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a duration: %q", raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// EnvName returns the environment variable that overrides a key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SettingsService resolves settings from defaults, the config file, a .env
// file and the environment, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	dotenv      map[string]string
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service. dotenv holds values
// read from a .env file and may be nil; lookupEnv defaults to os.LookupEnv.
func NewSettingsService(configStore driven.ConfigStore, dotenv map[string]string,
	lookupEnv func(string) (string, bool)) *SettingsService {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &SettingsService{configStore: configStore, dotenv: dotenv, lookupEnv: lookupEnv}
}

// ReadDotEnv reads a .env file. A missing file yields no values.
func ReadDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return values, nil
}

// Resolve merges every source, derives sink paths and validates once.
func (s *SettingsService) Resolve() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	for _, key := range s.Keys() {
		entry := settingsTable[key]

		if _, ok := s.configStore.Get(key); ok {
			if err := entry.apply(&settings, s.configStore.GetString(key)); err != nil {
				return settings, fmt.Errorf("%w: %s in %s: %v", domain.ErrInvalidSettings, key, s.configStore.Path(), err)
			}
		}

		env := EnvName(key)
		raw, ok := s.lookupEnv(env)
		source := "environment"
		if !ok {
			raw, ok = s.dotenv[env]
			source = ".env"
		}
		if ok {
			if err := entry.apply(&settings, raw); err != nil {
				return settings, fmt.Errorf("%w: %s from %s: %v", domain.ErrInvalidSettings, env, source, err)
			}
		}
	}

	settings = settings.WithDerivedPaths()
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Set validates and persists one key with its natural TOML type.
func (s *SettingsService) Set(key, value string) error {
	entry, ok := settingsTable[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q (known: %s)", domain.ErrInvalidSettings, key, strings.Join(s.Keys(), ", "))
	}
	scratch := domain.DefaultSettings()
	if err := entry.apply(&scratch, value); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidSettings, key, err)
	}
	if err := s.configStore.Set(key, entry.get(scratch)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the configuration keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingsTable))
	for k := range settingsTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the config file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// SettingsValues returns settings keyed by config key, for display.
func SettingsValues(settings domain.Settings) map[string]any {
	values := make(map[string]any, len(settingsTable))
	for k, entry := range settingsTable {
		values[k] = entry.get(settings)
	}
	return values
}
