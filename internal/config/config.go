package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataFile      string   `mapstructure:"data_file" yaml:"data_file"`
	Delimiter     string   `mapstructure:"delimiter" yaml:"delimiter"`
	HistogramBins int      `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	TimeLayouts   []string `mapstructure:"time_layouts" yaml:"time_layouts"`
	Sheet         string   `mapstructure:"sheet" yaml:"sheet"`
	SQLiteTable   string   `mapstructure:"sqlite_table" yaml:"sqlite_table"`

	// Report wording
	Title string `mapstructure:"title" yaml:"title"`
	Intro string `mapstructure:"intro" yaml:"intro"`

	// Dashboard
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	CacheTTLSec int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

const dirName = ".callscope"

// DefaultPath returns ~/.callscope/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.callscope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_file", "1Dec to 3Jan Consultations.csv")
	v.SetDefault("delimiter", ",")
	v.SetDefault("histogram_bins", 50)
	v.SetDefault("time_layouts", []string{})
	v.SetDefault("sheet", "")
	v.SetDefault("sqlite_table", "consultations")
	v.SetDefault("title", "Call Center Performance Analysis")
	v.SetDefault("intro", "Analysis of call center data from 1 Dec to 3 Jan.")
	v.SetDefault("listen_addr", ":8501")
	v.SetDefault("cache_ttl_sec", 300)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CALLSCOPE")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			if _, statErr := os.Stat(cfgFile); statErr == nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	t := reflect.TypeOf(Global{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		out = append(out, t.Field(i).Tag.Get("yaml"))
	}
	sort.Strings(out)
	return out
}

// Set assigns value to key, coercing it to the field's type.
func (c *Global) Set(key, value string) error {
	rv := reflect.ValueOf(c).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).Tag.Get("yaml") != key {
			continue
		}
		f := rv.Field(i)
		switch f.Kind() {
		case reflect.String:
			f.SetString(value)
		case reflect.Int:
			n, err := cast.ToIntE(value)
			if err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
			f.SetInt(int64(n))
		case reflect.Slice:
			var parts []string
			for _, p := range strings.Split(value, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
			f.Set(reflect.ValueOf(cast.ToStringSlice(parts)))
		default:
			return fmt.Errorf("set %s: unsupported field type %s", key, f.Kind())
		}
		return nil
	}
	return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
}

// Defaults returns the built-in settings, ignoring files and environment.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}
