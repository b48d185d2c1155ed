package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"guide2epub/internal/config"
)

// RunConfigWizard asks for the common settings on in and saves them as a
// config file. The file format follows the chosen extension.
func RunConfigWizard(in io.Reader, out io.Writer) error {
	w := wizard{reader: bufio.NewReader(in), out: out}
	fmt.Fprintln(out, "Config wizard (press Enter to accept defaults)")

	path := w.promptString("Config file path", config.DefaultConfigPath())
	urlStr := w.promptString("Guide URL", "")
	output := w.promptString("Output EPUB path (optional)", "")
	author := w.promptString("Author", "")
	mode := w.promptString("Mode (auto|static|dynamic)", "auto")
	timeout := w.promptInt("Timeout seconds", 30)
	delay := w.promptFloat("Delay between pages (seconds)", 1)
	waitFor := w.promptString("Wait for selector (optional)", "")
	headless := w.promptBool("Headless (true/false)", true)
	contentSel := w.promptString("Content selector (optional)", "")
	maxPages := w.promptInt("Max pages (0 = all)", 0)
	markdown := w.promptBool("Also write Markdown (true/false)", false)

	cfg := config.Config{
		URL:             strings.TrimSpace(urlStr),
		Output:          strings.TrimSpace(output),
		Author:          strings.TrimSpace(author),
		Mode:            mode,
		TimeoutSeconds:  timeout,
		DelaySeconds:    &delay,
		WaitForSelector: waitFor,
		Headless:        &headless,
		ContentSelector: contentSel,
		MaxPages:        maxPages,
		Markdown:        markdown,
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

type wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

func (w wizard) readLine() (string, bool) {
	line, err := w.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (w wizard) promptString(label, def string) string {
	if def != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w.out, "%s: ", label)
	}
	line, ok := w.readLine()
	if !ok || line == "" {
		return def
	}
	return line
}

func (w wizard) promptInt(label string, def int) int {
	fmt.Fprintf(w.out, "%s [%d]: ", label, def)
	line, ok := w.readLine()
	if !ok || line == "" {
		return def
	}
	var val int
	if _, err := fmt.Sscanf(line, "%d", &val); err != nil {
		return def
	}
	return val
}

func (w wizard) promptFloat(label string, def float64) float64 {
	fmt.Fprintf(w.out, "%s [%g]: ", label, def)
	line, ok := w.readLine()
	if !ok || line == "" {
		return def
	}
	var val float64
	if _, err := fmt.Sscanf(line, "%g", &val); err != nil {
		return def
	}
	return val
}

func (w wizard) promptBool(label string, def bool) bool {
	fmt.Fprintf(w.out, "%s [%t]: ", label, def)
	line, ok := w.readLine()
	if !ok || line == "" {
		return def
	}
	line = strings.ToLower(line)
	return line == "true" || line == "1" || line == "yes" || line == "y"
}
