// Package config loads labelsheet's user configuration.
//
// The configuration file is TOML by default; files ending in .yaml or .yml
// are read as YAML. Values in the file override built-in defaults, and
// command-line flags override the file. User presets extend the built-in
// catalog (see [sheet.NewCatalog]).
//
// Example config.toml:
//
//	[defaults]
//	preset = "avery-l7160"
//	symbology = "EAN13"
//	format = "pdf,png"
//
//	[[presets]]
//	name = "shelf"
//	margin_top = 10
//	margin_left = 5
//	columns = 2
//	rows = 10
//	row_height = 27
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/offline"
	"github.com/matzehuels/labelsheet/pkg/render"
	"github.com/matzehuels/labelsheet/pkg/sheet"
)

const (
	appName = "labelsheet"
	// FileName is the default configuration file name.
	FileName = "config.toml"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Offline store kinds.
const (
	StoreMemory = "memory"
	StoreDir    = "dir"
	StoreRedis  = "redis"
)

// Environment variables that override file values.
const (
	EnvCacheDir  = "LABELSHEET_CACHE_DIR"
	EnvRedisAddr = "LABELSHEET_REDIS_ADDR"
)

// Config holds all labelsheet configuration.
type Config struct {
	Defaults Defaults       `toml:"defaults" yaml:"defaults"`
	Presets  []sheet.Preset `toml:"presets" yaml:"presets"`
	Cache    Cache          `toml:"cache" yaml:"cache"`
	Offline  Offline        `toml:"offline" yaml:"offline"`
	Server   Server         `toml:"server" yaml:"server"`
}

// Defaults are the export settings used when no flag overrides them.
type Defaults struct {
	Preset     string  `toml:"preset" yaml:"preset"`
	Symbology  string  `toml:"symbology" yaml:"symbology"`
	Scale      float64 `toml:"scale" yaml:"scale"`
	Arrow      string  `toml:"arrow" yaml:"arrow"`
	ShowText   bool    `toml:"show_text" yaml:"show_text"`
	Format     string  `toml:"format" yaml:"format"`
	Prefix     string  `toml:"prefix" yaml:"prefix"`
	DPI        float64 `toml:"dpi" yaml:"dpi"`
	SkipHeader bool    `toml:"skip_header" yaml:"skip_header"`
}

// Cache configures the artifact cache.
type Cache struct {
	Backend   string `toml:"backend" yaml:"backend"`
	Dir       string `toml:"dir" yaml:"dir"`
	RedisAddr string `toml:"redis_addr" yaml:"redis_addr"`
}

// Offline configures the asset cache used by the server.
type Offline struct {
	Name    string   `toml:"name" yaml:"name"`
	BaseURL string   `toml:"base_url" yaml:"base_url"`
	Assets  []string `toml:"assets" yaml:"assets"`
	Store   string   `toml:"store" yaml:"store"`
	Dir     string   `toml:"dir" yaml:"dir"`
}

// Server configures `labelsheet serve`.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Defaults: Defaults{
			Preset:    "default",
			Symbology: string(render.DefaultSymbology),
			Scale:     sheet.DefaultCodeScale,
			Arrow:     string(sheet.ArrowNone),
			Format:    "pdf",
		},
		Cache: Cache{Backend: BackendFile},
		Offline: Offline{
			Name:  offline.DefaultName,
			Store: StoreMemory,
		},
		Server: Server{Addr: "127.0.0.1:8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/labelsheet/config.toml, falling back
// to ~/.config/labelsheet/config.toml.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, FileName), nil
}

// Load reads the configuration at path. An empty path means [DefaultPath];
// a missing default file yields the defaults, but a missing explicit path
// is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return finish(Default())
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return nil, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
			}
			return finish(Default())
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	return cfg, nil
}

// Format names accepted by Parse.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Parse decodes data on top of the defaults and validates the result.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, err
		}
	case FormatTOML, "":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config key: %s", undecoded[0])
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported config format: %q", format)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		c.Cache.Dir = dir
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		c.Cache.RedisAddr = addr
	}
}

// Validate checks every value that has a fixed set of choices.
func (c *Config) Validate() error {
	for _, p := range c.Presets {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New(errors.ErrCodeInvalidPreset, "preset without a name")
		}
		if p.Columns < 1 || p.Rows < 1 || p.RowHeight <= 0 {
			return errors.New(errors.ErrCodeInvalidPreset, "preset %q needs positive columns, rows and row_height", p.Name)
		}
	}
	if _, err := c.Catalog().Lookup(c.Defaults.Preset); err != nil {
		return err
	}
	if _, err := render.ParseSymbology(c.Defaults.Symbology); err != nil {
		return err
	}
	if _, err := sheet.ParseArrow(c.Defaults.Arrow); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend: %q", c.Cache.Backend)
	}
	switch c.Offline.Store {
	case "", StoreMemory, StoreDir:
	case StoreRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "offline store redis needs cache.redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown offline store: %q", c.Offline.Store)
	}
	if c.Offline.BaseURL != "" {
		if err := errors.ValidateURL(c.Offline.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

// Catalog returns the built-in presets extended with the user's.
func (c *Config) Catalog() *sheet.Catalog {
	return sheet.NewCatalog(c.Presets...)
}

// Grid builds the default grid from the configured preset, scale and arrow.
func (c *Config) Grid() (sheet.Grid, error) {
	p, err := c.Catalog().Lookup(c.Defaults.Preset)
	if err != nil {
		return sheet.Grid{}, err
	}
	arrow, err := sheet.ParseArrow(c.Defaults.Arrow)
	if err != nil {
		return sheet.Grid{}, err
	}
	g := sheet.DefaultGrid().ApplyPreset(p)
	g.CodeScale = c.Defaults.Scale
	g.Arrow = arrow
	return g.Normalize(), nil
}

// Formats splits the default format list.
func (c *Config) Formats() []string {
	var out []string
	for _, f := range strings.Split(c.Defaults.Format, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Manifest returns the offline manifest. Without configured assets the
// default asset list is used.
func (c *Config) Manifest() offline.Manifest {
	m := offline.DefaultManifest()
	if c.Offline.Name != "" {
		m.Name = c.Offline.Name
	}
	if len(c.Offline.Assets) > 0 {
		m.Assets = append([]string(nil), c.Offline.Assets...)
	}
	return m
}
