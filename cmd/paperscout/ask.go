package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nugget/paperscout/internal/report"
)

// runAsk handles "paperscout ask <question>". It runs a single query and
// renders the papers found in the requested output format.
func runAsk(ctx context.Context, stdout, stderr io.Writer, configPath, outputFmt string, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: paperscout ask <question>")
	}
	format, err := report.ParseFormat(outputFmt)
	if err != nil {
		return err
	}

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := configuredLogger(stderr, cfg)
	logger.Debug("config loaded", "path", cfgPath)

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	res := a.service.ProcessQuery(ctx, question, nil)
	if !res.Success {
		return errors.New(res.Error)
	}
	return report.Render(stdout, format, question, res.Papers)
}
