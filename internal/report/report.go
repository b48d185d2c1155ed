package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Report summarizes one conversion run.
type Report struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Output     string    `json:"output"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Pages   []Page `json:"pages"`
	Skipped []Skip `json:"skipped"`

	Images       Images            `json:"images"`
	FailedImages map[string]string `json:"failed_images,omitempty"`
	Links        Links             `json:"links"`
	Cover        string            `json:"cover"`
	Warnings     []string          `json:"warnings,omitempty"`
}

type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	FileName string `json:"file_name"`
	Mode     string `json:"mode,omitempty"`
	Chars    int    `json:"chars"`
}

type Skip struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

type Images struct {
	Downloaded int `json:"downloaded"`
	Reused     int `json:"reused"`
	Failed     int `json:"failed"`
}

type Links struct {
	Script     int `json:"script"`
	Broken     int `json:"broken"`
	DeadPage   int `json:"dead_page"`
	Fragments  int `json:"fragments"`
	External   int `json:"external"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
}

func (l Links) Stripped() int {
	return l.Script + l.Broken + l.DeadPage + l.Fragments + l.External
}

func New(url string, started time.Time) *Report {
	return &Report{
		URL:       url,
		StartedAt: started.UTC(),
		Pages:     []Page{},
		Skipped:   []Skip{},
	}
}

func (r *Report) AddPage(p Page) {
	r.Pages = append(r.Pages, p)
}

func (r *Report) Skip(url, title, reason string) {
	r.Skipped = append(r.Skipped, Skip{URL: url, Title: title, Reason: reason})
}

// Warn records a problem that did not stop the run.
func (r *Report) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Write stores the report as indented JSON, creating parent directories.
func Write(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
