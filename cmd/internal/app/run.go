package app

import (
	"context"
	"errors"
	"io/fs"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"herd/cmd/security/password"
)

// Run is the entrypoint used by cmd/herd. A .env file in the working directory, when
// present, is loaded first; variables already set in the environment win.
// It returns an error instead of calling os.Exit to keep defers effective.
func Run() error {
	if err := LoadDotEnv(); err != nil {
		return err
	}

	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	pwCfg, err := password.FromEnv()
	if err != nil {
		return err
	}

	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, pwCfg, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// LoadDotEnv loads ./.env if it exists. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
