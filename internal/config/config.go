package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	URL               string            `json:"url,omitempty" yaml:"url,omitempty"`
	Output            string            `json:"output,omitempty" yaml:"output,omitempty"`
	Title             string            `json:"title,omitempty" yaml:"title,omitempty"`
	Author            string            `json:"author,omitempty" yaml:"author,omitempty"`
	Language          string            `json:"language,omitempty" yaml:"language,omitempty"`
	Mode              string            `json:"mode,omitempty" yaml:"mode,omitempty"`
	TimeoutSeconds    int               `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	DelaySeconds      *float64          `json:"delay_seconds,omitempty" yaml:"delay_seconds,omitempty"`
	UserAgent         string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	WaitForSelector   string            `json:"wait_for,omitempty" yaml:"wait_for,omitempty"`
	Headless          *bool             `json:"headless,omitempty" yaml:"headless,omitempty"`
	Headers           map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	ContentSelector   string            `json:"content_selector,omitempty" yaml:"content_selector,omitempty"`
	ExcludeSelector   string            `json:"exclude_selector,omitempty" yaml:"exclude_selector,omitempty"`
	NavClassPrefix    string            `json:"nav_class_prefix,omitempty" yaml:"nav_class_prefix,omitempty"`
	MaxPages          int               `json:"max_pages,omitempty" yaml:"max_pages,omitempty"`
	KeepExternalLinks bool              `json:"keep_external_links,omitempty" yaml:"keep_external_links,omitempty"`
	NoCover           bool              `json:"no_cover,omitempty" yaml:"no_cover,omitempty"`
	CoverLogo         string            `json:"cover_logo,omitempty" yaml:"cover_logo,omitempty"`
	Markdown          bool              `json:"markdown,omitempty" yaml:"markdown,omitempty"`
	Report            string            `json:"report,omitempty" yaml:"report,omitempty"`
	// Shell commands run after the package is written.
	PostCommands []string `json:"post_commands,omitempty" yaml:"post_commands,omitempty"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a JSON or YAML config file, chosen by extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Marshal(cfg Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// MarshalFor encodes cfg in the format implied by path.
func MarshalFor(path string, cfg Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	return Marshal(cfg)
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg Config) error {
	data, err := MarshalFor(path, cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
