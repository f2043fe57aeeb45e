package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tally/internal/api"
	"tally/internal/apiclient"
	"tally/internal/config"
	"tally/internal/feature"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, apiFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		apiFlag:    apiFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.apiFlag != nil {
			if bind := strings.TrimSpace(*c.apiFlag); bind != "" {
				cfg.Server.Bind = bind
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) newClient() (*apiclient.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return apiclient.New(cfg.Server.Bind)
}

// withClient runs fn against the daemon API and translates connection
// failures into a hint the operator can act on. Mutations go through here;
// they always require a running daemon.
func (c *commandContext) withClient(fn func(*apiclient.Client) error) error {
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := fn(client); err != nil {
		return wrapUnavailable(err, client.BaseURL())
	}
	return nil
}

func wrapUnavailable(err error, base string) error {
	if apiclient.IsUnavailable(err) {
		return fmt.Errorf("daemon is not running on %s; start it with `tally start`", base)
	}
	return err
}

// featureReader is the read surface shared by the HTTP client and the
// in-process service, so read commands keep working while the daemon is down.
type featureReader interface {
	List(ctx context.Context, req api.ListRequest) (api.FeatureList, error)
	NextPending(ctx context.Context) (api.Feature, error)
	Stats(ctx context.Context) (api.Stats, error)
	Get(ctx context.Context, id int64) (api.Feature, error)
}

// withReader prefers the daemon API and falls back to reading the store
// directly when the daemon is down. The fallback refuses to create a database
// that does not exist yet.
func (c *commandContext) withReader(ctx context.Context, fn func(featureReader) error) error {
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if _, err := client.Health(ctx); err == nil {
		return fn(client)
	} else if !apiclient.IsUnavailable(err) {
		return err
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("daemon is not running on %s and no database exists yet; start it with `tally start`", cfg.Server.Bind)
		}
		return fmt.Errorf("check database: %w", err)
	}
	store, err := feature.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(api.NewService(store))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
