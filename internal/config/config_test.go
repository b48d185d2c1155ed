package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"guide2epub/internal/config"
)

func TestLoadConfig_JSON(t *testing.T) {
	data := []byte(`{
  "url": "https://www.ibm.com/think/topics/guide",
  "output": "out/guide.epub",
  "author": "Docs Team",
  "mode": "dynamic",
  "timeout_seconds": 42,
  "delay_seconds": 0.5,
  "wait_for": "main",
  "headless": false,
  "headers": {"Cookie": "a=b"},
  "max_pages": 3,
  "keep_external_links": true,
  "post_commands": ["echo done"]
}`)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	headless := false
	delay := 0.5
	expected := config.Config{
		URL:               "https://www.ibm.com/think/topics/guide",
		Output:            "out/guide.epub",
		Author:            "Docs Team",
		Mode:              "dynamic",
		TimeoutSeconds:    42,
		DelaySeconds:      &delay,
		WaitForSelector:   "main",
		Headless:          &headless,
		Headers:           map[string]string{"Cookie": "a=b"},
		MaxPages:          3,
		KeepExternalLinks: true,
		PostCommands:      []string{"echo done"},
	}
	if !reflect.DeepEqual(cfg, expected) {
		t.Fatalf("config mismatch\nexpected: %#v\ngot:      %#v", expected, cfg)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	data := []byte(`url: https://www.ibm.com/think/topics/guide
language: de
no_cover: true
markdown: true
report: report.json
content_selector: article
post_commands:
  - ls -l "$GUIDE2EPUB_OUTPUT"
`)
	path := filepath.Join(t.TempDir(), "guide.yml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Language != "de" || !cfg.NoCover || !cfg.Markdown || cfg.Report != "report.json" || cfg.ContentSelector != "article" {
		t.Fatalf("unexpected yaml config: %#v", cfg)
	}
	if len(cfg.PostCommands) != 1 || cfg.PostCommands[0] != `ls -l "$GUIDE2EPUB_OUTPUT"` {
		t.Fatalf("unexpected post commands: %#v", cfg.PostCommands)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	headless := true
	cfg := config.Config{
		URL:      "https://example.com/guide",
		Mode:     "auto",
		Headless: &headless,
		MaxPages: 10,
	}
	for _, name := range []string{"c.json", "c.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := config.Save(path, cfg); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		got, err := config.Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if !reflect.DeepEqual(got, cfg) {
			t.Fatalf("%s mismatch\nexpected: %#v\ngot:      %#v", name, cfg, got)
		}
	}
}

func TestHasConfigExtension(t *testing.T) {
	for path, want := range map[string]bool{
		"a.json": true,
		"a.YAML": true,
		"a.yml":  true,
		"a.txt":  false,
	} {
		if got := config.HasConfigExtension(path); got != want {
			t.Fatalf("HasConfigExtension(%q) = %v", path, got)
		}
	}
}
