package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"SlicerQC/internal/app"
	"SlicerQC/internal/config"
	"SlicerQC/internal/logging"
)

type commandContext struct {
	configFlag *string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) loadConfig() config.Config {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return config.LoadFrom(path)
		}
	}
	return config.Load()
}

// withApp builds the application under the single-user lock and tears it
// down after fn returns. Commands that write History go through here.
func (c *commandContext) withApp(cmd *cobra.Command, fn func(*app.Application) error) error {
	return c.run(cmd, true, fn)
}

// withReader builds the application without taking the lock, so the
// schedule daemon and read-only queries run next to an inspection session.
func (c *commandContext) withReader(cmd *cobra.Command, fn func(*app.Application) error) error {
	return c.run(cmd, false, fn)
}

func (c *commandContext) run(cmd *cobra.Command, exclusive bool, fn func(*app.Application) error) error {
	cfg := c.loadConfig()
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level)

	if exclusive {
		lockPath := lockPathFor(cfg.Database)
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another slicerqc session holds %s", lockPath)
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			logger.Warn("close application", "error", closeErr)
		}
	}()

	return fn(application)
}

// lockPathFor places the lock next to a SQLite file, otherwise in the temp dir.
func lockPathFor(db config.DatabaseConfig) string {
	if db.Driver == "" || db.Driver == "sqlite" {
		path := strings.TrimPrefix(db.DSN, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path != "" && path != ":memory:" {
			return path + ".lock"
		}
	}
	return filepath.Join(os.TempDir(), "slicerqc.lock")
}
