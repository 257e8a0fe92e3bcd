// Package config loads graphlayout settings from a TOML file.
//
// The file is optional. Missing keys keep the values of [Default]:
//
//	[layout]
//	algorithm = "spring"    # "forest", "spring", or empty to choose by graph kind
//	rigidity = 2.0
//	timeout = "2s"
//	seed = 42
//	record_shift = false
//
//	[cache]
//	backend = "file"        # "file", "redis", "mongo" or "none"
//	dir = "~/.cache/graphlayout"
//	ttl = "168h"
//	redis_url = "redis://localhost:6379/0"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "graphlayout"
//	mongo_collection = "layouts"
//	key_prefix = ""         # e.g. "staging:" to share a redis or mongo cache
//
//	[server]
//	addr = ":8080"
//	read_timeout = "10s"
//	write_timeout = "30s"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/layout"
)

// AppName names the configuration and cache directories.
const AppName = "graphlayout"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Backends lists the accepted cache backends.
var Backends = []string{BackendFile, BackendRedis, BackendMongo, BackendNone}

// Config is the root of the configuration file.
type Config struct {
	Layout Layout `toml:"layout"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
}

// Layout holds defaults for layout runs.
type Layout struct {
	Algorithm   string   `toml:"algorithm"`
	Rigidity    float64  `toml:"rigidity"`
	Timeout     Duration `toml:"timeout"`
	Seed        uint64   `toml:"seed"`
	RecordShift bool     `toml:"record_shift"`
}

// Cache selects and configures the layout cache.
type Cache struct {
	Backend         string   `toml:"backend"`
	Dir             string   `toml:"dir"`
	TTL             Duration `toml:"ttl"`
	RedisURL        string   `toml:"redis_url"`
	MongoURI        string   `toml:"mongo_uri"`
	MongoDatabase   string   `toml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection"`
	KeyPrefix       string   `toml:"key_prefix"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// Duration is a time.Duration written as a string ("2s", "10m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: Layout{
			Rigidity: layout.DefaultRigidity,
			Timeout:  Duration{layout.DefaultTimeout},
			Seed:     layout.DefaultSeed,
		},
		Cache: Cache{
			Backend:         BackendFile,
			TTL:             Duration{7 * 24 * time.Hour},
			RedisURL:        "redis://localhost:6379/0",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   AppName,
			MongoCollection: "layouts",
		},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
	}
}

// Load reads the file at path on top of [Default]. An empty path means
// [DefaultPath]; a missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return cfg, nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and the selected cache backend.
func (c *Config) Validate() error {
	if a := c.Layout.Algorithm; a != "" && !slices.Contains(layout.Names(), a) {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.algorithm: unknown algorithm %q", a)
	}
	if c.Layout.Rigidity < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.rigidity must not be negative")
	}
	if c.Layout.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.timeout must not be negative")
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if err := errors.ValidateURL(c.Cache.RedisURL, "redis", "rediss", "unix"); err != nil {
			return err
		}
	case BackendMongo:
		if err := errors.ValidateURL(c.Cache.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return err
		}
		if c.Cache.MongoDatabase == "" || c.Cache.MongoCollection == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.mongo_database and cache.mongo_collection are required")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend: unknown backend %q (want one of %v)", c.Cache.Backend, Backends)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}

	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr cannot be empty")
	}
	return nil
}

// CacheDir returns the configured file cache directory, or the XDG cache
// location (~/.cache/graphlayout) when none is set.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return expandHome(c.Cache.Dir)
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DefaultPath returns the XDG config file location
// (~/.config/graphlayout/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !hasHomePrefix(p) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}

func hasHomePrefix(p string) bool {
	return len(p) > 1 && p[0] == '~' && p[1] == '/'
}
