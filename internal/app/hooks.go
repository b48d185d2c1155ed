package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// runPostCommands runs each configured shell command after the package is
// written. Blank lines and lines starting with # are ignored.
func runPostCommands(ctx context.Context, commands []string, res Result) error {
	log := zerolog.Ctx(ctx)
	for _, cmdStr := range commands {
		cmdStr = strings.TrimSpace(cmdStr)
		if cmdStr == "" || strings.HasPrefix(cmdStr, "#") {
			continue
		}
		cmd, err := commandForShell(ctx, cmdStr)
		if err != nil {
			return err
		}
		output, err := filepath.Abs(res.Output)
		if err != nil {
			output = res.Output
		}
		cmd.Env = append(os.Environ(),
			"GUIDE2EPUB_OUTPUT="+output,
			"GUIDE2EPUB_MARKDOWN="+res.MarkdownPath,
			"GUIDE2EPUB_REPORT="+res.ReportPath,
		)
		if res.Report != nil {
			cmd.Env = append(cmd.Env, "GUIDE2EPUB_URL="+res.Report.URL, "GUIDE2EPUB_TITLE="+res.Report.Title)
		}
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr

		log.Info().Str("command", cmdStr).Msg("running post command")
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("post command failed %q: %w", cmdStr, err)
		}
	}
	return nil
}

func commandForShell(ctx context.Context, command string) (*exec.Cmd, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.New("empty command")
	}
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command), nil
	}
	return exec.CommandContext(ctx, "sh", "-c", command), nil
}
