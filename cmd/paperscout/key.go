package main

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// runKey handles "paperscout key set|show|test".
func runKey(ctx context.Context, stdout, stderr io.Writer, configPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: paperscout key set <value> | show | test")
	}

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	a, err := openApp(cfg, configuredLogger(stderr, cfg))
	if err != nil {
		return err
	}
	defer a.close()

	switch args[0] {
	case "set":
		value := strings.TrimSpace(strings.Join(args[1:], " "))
		if err := a.creds.Set(ctx, value); err != nil {
			return err
		}
		if value == "" {
			fmt.Fprintf(stdout, "Cleared stored %s\n", a.creds.KeyName())
		} else {
			fmt.Fprintf(stdout, "Stored %s (%s)\n", a.creds.KeyName(), maskKey(value))
		}
		return nil

	case "show":
		status, err := a.creds.Status(ctx)
		if err != nil {
			return err
		}
		if !status.Configured {
			fmt.Fprintf(stdout, "%s: not configured\n", a.creds.KeyName())
			return nil
		}
		value, err := a.creds.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %s (%s)", a.creds.KeyName(), maskKey(value), status.Origin)
		if !status.UpdatedAt.IsZero() {
			fmt.Fprintf(stdout, ", updated %s", status.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(stdout)
		return nil

	case "test":
		if !cfg.RequiresCredential() {
			fmt.Fprintf(stdout, "%s needs no API key; testing the endpoint\n", cfg.LLM.Provider)
		}
		if err := testModel(ctx, a.llm); err != nil {
			return fmt.Errorf("key test failed: %s", describeModelError(err))
		}
		fmt.Fprintf(stdout, "OK: %s model %s answered\n", a.llm.Provider(), a.llm.Model())
		return nil
	}
	return fmt.Errorf("unknown key command: %s", args[0])
}

// maskKey shows only the last four characters of a key.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
