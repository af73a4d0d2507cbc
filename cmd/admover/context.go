package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-admover/internal/config"
	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

type commandContext struct {
	configPath string
	logLevel   string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// Overrides for tests; nil selects the real implementations.
	dialer     ldapclient.Dialer
	runner     ldapclient.CommandRunner
	isTerminal func(io.Reader) bool
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevel != "" {
			cfg.Logging.Level = strings.ToLower(c.logLevel)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes diagnostics to the command's stderr.
func (c *commandContext) logger(cmd *cobra.Command) (ldapclient.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return ldapclient.NewSlogLogger(logger), nil
}

// directory returns everything needed to browse and relocate.
func (c *commandContext) directory(cmd *cobra.Command) (*ldapclient.ProviderData, ldapclient.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, nil, err
	}
	rootPath, err := cfg.RootPath()
	if err != nil {
		return nil, nil, err
	}

	dialer := c.dialer
	if dialer == nil {
		dialer = ldapclient.NewDialer(cfg.ConnectionConfig(), logger)
	}

	data := ldapclient.NewProviderData(dialer, cfg.Credentials(), rootPath)
	data.Relocation = cfg.RelocatorOptions()
	data.Delegated = cfg.DelegatedMover(c.runner)
	return data, logger, nil
}

func (c *commandContext) terminal(r io.Reader) bool {
	if c.isTerminal != nil {
		return c.isTerminal(r)
	}
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newLogger(cfg config.Logging, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "trace":
		level = ldapclient.LevelTrace
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "", "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("log level: unsupported value %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", cfg.Format)
	}
}
