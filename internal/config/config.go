// Package config loads knolreview settings from, in increasing priority,
// built-in defaults, a YAML file, KNOLREVIEW_* environment variables and
// command-line flags.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolreview/internal/sm2"
)

// EnvPrefix prefixes every environment variable. Nested keys are joined
// with a double underscore: KNOLREVIEW_STORE__DRIVER sets store.driver.
const EnvPrefix = "KNOLREVIEW_"

// Config is the full application configuration.
type Config struct {
	Store      StoreConfig  `koanf:"store"`
	Log        LogConfig    `koanf:"log"`
	Engine     EngineConfig `koanf:"engine"`
	Scheduling sm2.Settings `koanf:"scheduling"`
	Decks      DeckConfig   `koanf:"decks"`

	// SchedulingSet is true when any scheduling key was configured. Only
	// then do the scheduling settings override the persisted ones.
	SchedulingSet bool `koanf:"-"`
}

type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=sqlite redis memory"`
	// DSN is the database path for sqlite and the server address for redis.
	DSN           string `koanf:"dsn" validate:"required_unless=Driver memory"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	KeyPrefix     string `koanf:"key_prefix"`
}

type LogConfig struct {
	Mode  string `koanf:"mode" validate:"oneof=dev prod"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

type EngineConfig struct {
	SessionLogSize int           `koanf:"session_log_size" validate:"gte=1"`
	WriteBehind    bool          `koanf:"write_behind"`
	SaveAttempts   uint          `koanf:"save_attempts" validate:"gte=1"`
	RetryInterval  time.Duration `koanf:"retry_interval" validate:"gt=0"`
}

type DeckConfig struct {
	// Sources are local directories or git URLs synced by "knolreview sync".
	Sources  []string `koanf:"sources" validate:"dive,required"`
	ReposDir string   `koanf:"repos_dir" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver:    "sqlite",
			DSN:       "knolreview.db",
			KeyPrefix: "knolreview:",
		},
		Log: LogConfig{Mode: "dev"},
		Engine: EngineConfig{
			SessionLogSize: 1000,
			SaveAttempts:   3,
			RetryInterval:  50 * time.Millisecond,
		},
		Scheduling: sm2.DefaultSettings(),
		Decks:      DeckConfig{ReposDir: "repos"},
	}
}

// RegisterFlags adds the flags Load understands to fs. Flag names match
// configuration keys.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to a YAML configuration file")
	fs.String("store.driver", d.Store.Driver, "state store: sqlite, redis or memory")
	fs.String("store.dsn", d.Store.DSN, "sqlite database path or redis address")
	fs.String("log.mode", d.Log.Mode, "log format: dev or prod")
	fs.String("log.level", d.Log.Level, "minimum log level")
	fs.Bool("engine.write_behind", d.Engine.WriteBehind, "save state in the background")
}

// Load builds the configuration. fs may be nil; when it carries a
// "config" flag that file is read, otherwise path is used if non-empty.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(errors.Cause(err)) {
				return Config{}, errors.Wrapf(err, "failed to read config file %s", path)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, errors.Wrap(err, "failed to read environment")
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, errors.Wrap(err, "failed to read flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode configuration")
	}
	cfg.SchedulingSet = len(k.Cut("scheduling").Keys()) > 0
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps KNOLREVIEW_ENGINE__SAVE_ATTEMPTS to engine.save_attempts.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks the configuration, including the scheduling settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}
