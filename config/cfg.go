package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	ImagesConfig struct {
		// Debug adds origin tracing comments to generated CSS.
		Debug bool `yaml:"debug"`
		// Formats lists alternative encodings in order of preference, e.g. webp, avif.
		Formats []string `yaml:"formats" validate:"dive,required,alphanum,lowercase"`
		// Densities lists supported device pixel ratios, ascending.
		Densities    []float64 `yaml:"densities" validate:"required,min=1,dive,gte=1"`
		ClassPrefix  string    `yaml:"class_prefix" validate:"required"`
		VerifyWidths bool      `yaml:"verify_widths"`
	}

	SiteConfig struct {
		Root     string `yaml:"root" sanitize:"path_clean" validate:"required"`
		PagesDir string `yaml:"pages_dir" validate:"omitempty"`
		BaseURL  string `yaml:"base_url"`
		// Streams maps resource scheme names (without "://") to directories.
		Streams map[string]string `yaml:"streams" validate:"dive,keys,alpha,endkeys,required"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Images    ImagesConfig   `yaml:"images"`
		Site      SiteConfig     `yaml:"site"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// checkImages makes sure density set is strictly ascending and formats are
// not repeated, neither could be expressed with tags alone.
func checkImages(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)

	for i := 1; i < len(cfg.Images.Densities); i++ {
		if cfg.Images.Densities[i] <= cfg.Images.Densities[i-1] {
			sl.ReportError(cfg.Images.Densities, "Densities", "densities", "ascending", "")
			break
		}
	}
	seen := make(map[string]struct{}, len(cfg.Images.Formats))
	for _, f := range cfg.Images.Formats {
		if _, ok := seen[f]; ok {
			sl.ReportError(cfg.Images.Formats, "Formats", "formats", "unique", f)
			break
		}
		seen[f] = struct{}{}
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitization failed: %w", err)
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkImages)); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
