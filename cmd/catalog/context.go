package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/alldopamine/catalog/internal/config"
	"github.com/alldopamine/catalog/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = &cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// withApp builds the application, runs fn and releases every connection.
func (c *commandContext) withApp(ctx context.Context, fn func(*app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, *cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
