package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"anistrm/internal/config"
	"anistrm/internal/ipc"
)

// skipConfigAnnotation marks commands that must run without a loadable config.
const skipConfigAnnotation = "skipConfigLoad"

// commandContext carries the persistent --socket and --config flags and the
// config they resolve to. The config is loaded once per invocation.
type commandContext struct {
	socketFlag *string
	configFlag *string

	load sync.Once
	cfg  *config.Config
	err  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{socketFlag: socketFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.load.Do(func() {
		cfg, _, _, err := config.Load(c.configFlagValue())
		if err == nil {
			err = cfg.EnsureDirectories()
		}
		c.cfg, c.err = cfg, err
		if err != nil {
			c.cfg = nil
		}
	})
	return c.cfg, c.err
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// configValue returns the loaded config or nil when it failed to load.
func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// socketPath prefers --socket, then <state_dir>/anistrm.sock from the config,
// then the same file under the default state directory.
func (c *commandContext) socketPath() string {
	if c.socketFlag != nil {
		if flag := strings.TrimSpace(*c.socketFlag); flag != "" {
			return flag
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.SocketPath()
	}
	fallback := config.Default()
	if dir, err := config.ExpandPath(fallback.Paths.StateDir); err == nil {
		fallback.Paths.StateDir = dir
		return fallback.SocketPath()
	}
	return filepath.Join(os.TempDir(), "anistrm.sock")
}

// errDaemonUnavailable marks dial failures that mean no daemon is listening.
// sync and test-notify fall back to in-process work on it.
var errDaemonUnavailable = errors.New("daemon unavailable")

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	switch {
	case err == nil:
		return client, nil
	case errors.Is(err, syscall.ENOENT):
		return nil, fmt.Errorf("%w: no socket at %s; start it with `anistrm start`", errDaemonUnavailable, socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return nil, fmt.Errorf("%w: %s refused the connection (stale socket?)", errDaemonUnavailable, socket)
	default:
		return nil, fmt.Errorf("connect to daemon at %s: %w", socket, err)
	}
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}
