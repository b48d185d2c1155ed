package tui

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"guide2epub/internal/app"
	"guide2epub/internal/book"
	"guide2epub/internal/config"
	"guide2epub/internal/fetch"
)

type Result struct {
	Options    app.Options
	SaveConfig bool
	ConfigPath string
	Config     config.Config
	RunNow     bool
}

func Run() (Result, error) {
	printBanner()
	state := newFormState()

	if err := manageConfigs(state); err != nil {
		return Result{}, err
	}

	form := buildForm(state).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return Result{}, err
	}

	return buildResult(state)
}

func printBanner() {
	fmt.Print(`
            _     _      ____                 _
   __ _ _  _(_) __| | ___|___ \ ___ _ __  _  _| |__
  / _` + "`" + ` | || | |/ _` + "`" + ` |/ -_) __) / -_) '_ \| || | '_ \
  \__, |\_,_|_|\__,_|\___/____|\___| .__/ \_,_|_.__/
  |___/                            |_|
`)
}

func manageConfigs(state *formState) error {
	for {
		files, err := config.Find()
		if err != nil {
			return fmt.Errorf("failed to list configs: %w", err)
		}

		if len(files) == 0 {
			return nil
		}

		var selectedFile string
		opts := []huh.Option[string]{
			huh.NewOption("Start fresh (no config)", ""),
		}
		for _, f := range files {
			opts = append(opts, huh.NewOption(fmt.Sprintf("Manage %s", f), f))
		}

		selectForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Manage Configurations").
					Description("Select a config to load or manage, or start fresh.").
					Options(opts...).
					Value(&selectedFile),
			),
		).WithTheme(huh.ThemeDracula())

		if err := selectForm.Run(); err != nil {
			return err
		}

		if selectedFile == "" {
			return nil
		}

		var action string
		actionForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Action for %s", selectedFile)).
					Options(
						huh.NewOption("Load this config", "load"),
						huh.NewOption("Rename this config", "rename"),
						huh.NewOption("Clone this config", "clone"),
						huh.NewOption("Delete this config", "delete"),
						huh.NewOption("Back to list", "back"),
					).
					Value(&action),
			),
		).WithTheme(huh.ThemeDracula())

		if err := actionForm.Run(); err != nil {
			return err
		}

		shouldExit, err := executeConfigAction(action, selectedFile, state)
		if err != nil {
			return err
		}
		if shouldExit {
			return nil
		}
	}
}

func executeConfigAction(action, selectedFile string, state *formState) (bool, error) {
	switch action {
	case "load":
		cfg, err := config.Load(selectedFile)
		if err != nil {
			return false, fmt.Errorf("failed to load %s: %w", selectedFile, err)
		}
		state.fromConfig(cfg)
		state.configPath = selectedFile
		return true, nil

	case "rename":
		var newName string
		if err := huh.NewInput().Title("New filename").Value(&newName).Validate(validateNewFilename).Run(); err != nil {
			return false, err
		}
		newName = siblingPath(selectedFile, ensureConfigExtension(newName))
		if err := os.Rename(selectedFile, newName); err != nil {
			return false, fmt.Errorf("failed to rename: %w", err)
		}

	case "clone":
		var newName string
		if err := huh.NewInput().Title("Clone as").Value(&newName).Validate(validateNewFilename).Run(); err != nil {
			return false, err
		}
		if err := cloneConfig(selectedFile, siblingPath(selectedFile, ensureConfigExtension(newName))); err != nil {
			return false, err
		}

	case "delete":
		var confirmDelete bool
		if err := huh.NewConfirm().Title(fmt.Sprintf("Really delete %s?", selectedFile)).Affirmative("Yes, delete it.").Negative("No, keep it.").Value(&confirmDelete).Run(); err != nil {
			return false, err
		}
		if confirmDelete {
			if err := os.Remove(selectedFile); err != nil {
				return false, fmt.Errorf("failed to delete %s: %w", selectedFile, err)
			}
		}
	}

	return false, nil
}

// cloneConfig copies src to dst, converting between JSON and YAML when the
// extensions differ.
func cloneConfig(src, dst string) error {
	cfg, err := config.Load(src)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", src, err)
	}
	if err := config.Save(dst, cfg); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

func siblingPath(existing, name string) string {
	if filepath.Base(name) != name {
		return name
	}
	return filepath.Join(filepath.Dir(existing), name)
}

type formState struct {
	urlStr        string
	title         string
	author        string
	language      string
	mode          string
	timeoutSecStr string
	delayStr      string
	userAgent     string
	waitFor       string
	headless      bool
	output        string
	contentSel    string
	excludeSel    string
	navPrefix     string
	maxPagesStr   string
	keepExternal  bool
	noCover       bool
	coverLogo     string
	markdown      bool
	reportPath    string
	dryRun        bool
	postCommands  []string
	configPath    string
	finalAction   string
}

func newFormState() *formState {
	return &formState{
		author:        book.DefaultAuthor,
		language:      book.DefaultLanguage,
		mode:          string(fetch.ModeAuto),
		timeoutSecStr: strconv.Itoa(int(app.DefaultTimeout / time.Second)),
		delayStr:      strconv.FormatFloat(app.DefaultDelay.Seconds(), 'f', -1, 64),
		headless:      true,
		maxPagesStr:   "0",
		configPath:    config.DefaultConfigPath(),
		finalAction:   "run",
	}
}

func (s *formState) fromConfig(cfg config.Config) {
	setString(&s.urlStr, cfg.URL)
	setString(&s.title, cfg.Title)
	setString(&s.author, cfg.Author)
	setString(&s.language, cfg.Language)
	setString(&s.mode, cfg.Mode)
	setString(&s.userAgent, cfg.UserAgent)
	setString(&s.waitFor, cfg.WaitForSelector)
	setString(&s.output, cfg.Output)
	setString(&s.contentSel, cfg.ContentSelector)
	setString(&s.excludeSel, cfg.ExcludeSelector)
	setString(&s.navPrefix, cfg.NavClassPrefix)
	setString(&s.coverLogo, cfg.CoverLogo)
	setString(&s.reportPath, cfg.Report)
	if cfg.TimeoutSeconds > 0 {
		s.timeoutSecStr = strconv.Itoa(cfg.TimeoutSeconds)
	}
	if cfg.DelaySeconds != nil {
		s.delayStr = strconv.FormatFloat(*cfg.DelaySeconds, 'f', -1, 64)
	}
	if cfg.Headless != nil {
		s.headless = *cfg.Headless
	}
	if cfg.MaxPages > 0 {
		s.maxPagesStr = strconv.Itoa(cfg.MaxPages)
	}
	s.keepExternal = cfg.KeepExternalLinks
	s.noCover = cfg.NoCover
	s.markdown = cfg.Markdown
	s.postCommands = cfg.PostCommands
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func buildForm(state *formState) *huh.Form {
	return huh.NewForm(
		buildTargetGroup(state),
		buildBookGroup(state),
		buildExtractionGroup(state),
		buildNetworkGroup(state),
		buildOutputGroup(state),
		buildFinishGroup(state),
	)
}

func buildTargetGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Guide URL").Placeholder("https://www.ibm.com/think/topics/...").Value(&state.urlStr).
			Description("Page holding the guide navigation.").
			Validate(validateGuideURL),
		huh.NewSelect[string]().Title("Mode").Description("Fetching strategy.").Value(&state.mode).Options(
			huh.NewOption("auto", string(fetch.ModeAuto)),
			huh.NewOption("static", string(fetch.ModeStatic)),
			huh.NewOption("dynamic", string(fetch.ModeDynamic)),
		),
	).Title("Target")
}

func buildBookGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Title").Description("Optional: detected from the guide page.").Value(&state.title),
		huh.NewInput().Title("Author").Value(&state.author),
		huh.NewInput().Title("Language").Value(&state.language),
		huh.NewConfirm().Title("Skip cover").Description("Do not render a cover image.").Value(&state.noCover),
		huh.NewInput().Title("Cover logo").Description("Optional image shown on the cover.").Value(&state.coverLogo),
	).Title("Book")
}

func buildExtractionGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Content Selector").Description("CSS selector for the article container.").Placeholder(".body-article-8").Value(&state.contentSel),
		huh.NewInput().Title("Exclude Selector").Description("CSS selector to remove from articles.").Placeholder(".ads").Value(&state.excludeSel),
		huh.NewInput().Title("Nav class prefix").Description("Class prefix of the side navigation.").Placeholder("cmp-side-navigation").Value(&state.navPrefix),
		huh.NewInput().Title("Max pages (0=all)").Value(&state.maxPagesStr).Validate(validateIntString(0, 100000)),
		huh.NewConfirm().Title("Keep external links").Value(&state.keepExternal),
	).Title("Extraction")
}

func buildNetworkGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Timeout (seconds)").Value(&state.timeoutSecStr).
			Validate(validateIntString(1, 3600)),
		huh.NewInput().Title("Delay between pages (seconds)").Value(&state.delayStr).
			Validate(validateFloatString(0, 600)),
		huh.NewInput().Title("Wait-for selector").Description("Dynamic mode: wait for this element.").Value(&state.waitFor),
		huh.NewConfirm().Title("Headless").Description("Hide browser window (dynamic)?").Value(&state.headless),
		huh.NewInput().Title("User-Agent").Value(&state.userAgent),
	).Title("Network & Browser")
}

func buildOutputGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Output EPUB").Description("Optional: defaults to a slug of the title.").Placeholder("guide.epub").Value(&state.output),
		huh.NewConfirm().Title("Markdown copy").Description("Also write the book as Markdown.").Value(&state.markdown),
		huh.NewInput().Title("Report path").Description("Optional JSON run report.").Value(&state.reportPath),
		huh.NewConfirm().Title("Dry run").Description("Print the page plan without writing files.").Value(&state.dryRun),
	).Title("Output")
}

func buildFinishGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewSelect[string]().Title("Action").Value(&state.finalAction).Options(
			huh.NewOption("Convert now", "run"),
			huh.NewOption("Save config and convert", "save_and_run"),
			huh.NewOption("Only save config", "save_only"),
		),
		huh.NewInput().Title("Config path").
			Description("Path for 'Save' actions (.yaml or .json).").
			Value(&state.configPath).
			Validate(func(s string) error {
				isSaveAction := state.finalAction == "save_and_run" || state.finalAction == "save_only"
				if !isSaveAction {
					return nil
				}
				return validateNewFilename(s)
			}),
	).Title("Finish")
}

func buildResult(state *formState) (Result, error) {
	timeoutSec, err := parsePositiveInt(state.timeoutSecStr, "timeout must be a positive integer")
	if err != nil {
		return Result{}, err
	}
	delay, err := parseNonNegativeFloat(state.delayStr, "delay must be a number >= 0")
	if err != nil {
		return Result{}, err
	}
	maxPages, err := parseNonNegativeInt(state.maxPagesStr, "max pages must be an integer >= 0")
	if err != nil {
		return Result{}, err
	}

	cfg := config.Config{
		URL:               strings.TrimSpace(state.urlStr),
		Output:            strings.TrimSpace(state.output),
		Title:             strings.TrimSpace(state.title),
		Author:            strings.TrimSpace(state.author),
		Language:          strings.TrimSpace(state.language),
		Mode:              state.mode,
		TimeoutSeconds:    timeoutSec,
		DelaySeconds:      &delay,
		UserAgent:         strings.TrimSpace(state.userAgent),
		WaitForSelector:   strings.TrimSpace(state.waitFor),
		Headless:          &state.headless,
		ContentSelector:   strings.TrimSpace(state.contentSel),
		ExcludeSelector:   strings.TrimSpace(state.excludeSel),
		NavClassPrefix:    strings.TrimSpace(state.navPrefix),
		MaxPages:          maxPages,
		KeepExternalLinks: state.keepExternal,
		NoCover:           state.noCover,
		CoverLogo:         strings.TrimSpace(state.coverLogo),
		Markdown:          state.markdown,
		Report:            strings.TrimSpace(state.reportPath),
		PostCommands:      state.postCommands,
	}

	opts := app.Options{
		URL:               cfg.URL,
		Output:            cfg.Output,
		Title:             cfg.Title,
		Author:            cfg.Author,
		Language:          cfg.Language,
		Mode:              fetch.Mode(strings.ToLower(strings.TrimSpace(state.mode))),
		Timeout:           time.Duration(timeoutSec) * time.Second,
		Delay:             time.Duration(delay * float64(time.Second)),
		UserAgent:         cfg.UserAgent,
		WaitFor:           cfg.WaitForSelector,
		Headless:          state.headless,
		ContentSelector:   cfg.ContentSelector,
		ExcludeSelector:   cfg.ExcludeSelector,
		NavClassPrefix:    cfg.NavClassPrefix,
		MaxPages:          maxPages,
		KeepExternalLinks: state.keepExternal,
		NoCover:           state.noCover,
		CoverLogo:         cfg.CoverLogo,
		DryRun:            state.dryRun,
		Markdown:          state.markdown,
		ReportPath:        cfg.Report,
		PostCommands:      state.postCommands,
	}

	res := Result{
		Options:    opts,
		ConfigPath: state.configPath,
		Config:     cfg,
	}

	switch state.finalAction {
	case "run":
		res.RunNow = true
	case "save_and_run":
		res.RunNow = true
		res.SaveConfig = true
	case "save_only":
		res.SaveConfig = true
	}

	if res.SaveConfig {
		if err := config.Save(state.configPath, cfg); err != nil {
			return Result{}, err
		}
	}

	return res, nil
}

func validateGuideURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) url")
	}
	return nil
}

func parsePositiveInt(s, errMsg string) (int, error) {
	val, err := parseInt(s)
	if err != nil || val <= 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseNonNegativeInt(s, errMsg string) (int, error) {
	val, err := parseInt(s)
	if err != nil || val < 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseNonNegativeFloat(s, errMsg string) (float64, error) {
	val, err := parseFloat(s)
	if err != nil || val < 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func validateIntString(minVal, maxVal int) func(string) error {
	return func(s string) error {
		v, err := parseInt(s)
		if err != nil {
			return errors.New("must be an integer")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %d and %d", minVal, maxVal)
		}
		return nil
	}
}

func validateFloatString(minVal, maxVal float64) func(string) error {
	return func(s string) error {
		v, err := parseFloat(s)
		if err != nil {
			return errors.New("must be a number")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %.2f and %.2f", minVal, maxVal)
		}
		return nil
	}
}

func validateNewFilename(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("filename cannot be empty")
	}
	if strings.ContainsAny(s, `\:*?"<>|`) {
		return errors.New("invalid characters")
	}
	target := ensureConfigExtension(s)
	if _, err := os.Stat(target); err == nil {
		return errors.New("file already exists")
	}
	return nil
}

// ensureConfigExtension defaults bare names to YAML.
func ensureConfigExtension(s string) string {
	if config.HasConfigExtension(s) {
		return s
	}
	return s + ".yaml"
}
