// Package config loads gomart command settings from a YAML file,
// GOMART_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/w0rng/gomart/export"
	"github.com/w0rng/gomart/loader"
)

type Settings struct {
	Data struct {
		Dir   string       `mapstructure:"dir"`
		Files loader.Files `mapstructure:"files"`
	} `mapstructure:"data"`

	Catalog struct {
		Driver string `mapstructure:"driver"` // memory, sqlite or postgres
		DSN    string `mapstructure:"dsn"`    // file path for sqlite
	} `mapstructure:"catalog"`

	Output struct {
		Path        string `mapstructure:"path"`
		Compression string `mapstructure:"compression"`
	} `mapstructure:"output"`

	Report struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"report"`

	Metrics struct {
		Textfile string `mapstructure:"textfile"`
	} `mapstructure:"metrics"`

	Log struct {
		Mode string `mapstructure:"mode"`
	} `mapstructure:"log"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	files := loader.DefaultFiles()
	v.SetDefault("data.dir", ".")
	v.SetDefault("data.files.orders", files.Orders)
	v.SetDefault("data.files.priors", files.Priors)
	v.SetDefault("data.files.trains", files.Trains)
	v.SetDefault("data.files.products", files.Products)
	v.SetDefault("data.files.aisles", files.Aisles)
	v.SetDefault("data.files.departments", files.Departments)
	v.SetDefault("catalog.driver", "memory")
	v.SetDefault("catalog.dsn", "")
	v.SetDefault("output.path", "labeled_mart.csv")
	v.SetDefault("output.compression", string(export.None))
	v.SetDefault("report.path", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.mode", "dev")
}

// Load reads configFile, or gomart.yaml from the working directory when
// configFile is empty, and returns validated settings. A missing default
// config file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix("gomart")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("gomart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := Validate(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

func Validate(s *Settings) error {
	switch s.Catalog.Driver {
	case "memory":
	case "sqlite", "postgres":
		if s.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn is required for driver %q", s.Catalog.Driver)
		}
	default:
		return fmt.Errorf("unknown catalog.driver %q", s.Catalog.Driver)
	}

	if _, err := export.ParseCompression(s.Output.Compression); err != nil {
		return err
	}

	f := s.Data.Files
	required := []struct{ key, name string }{
		{"orders", f.Orders},
		{"priors", f.Priors},
		{"trains", f.Trains},
		{"products", f.Products},
		{"aisles", f.Aisles},
	}
	for _, r := range required {
		if r.name == "" {
			return fmt.Errorf("data.files.%s is required", r.key)
		}
	}
	return nil
}
