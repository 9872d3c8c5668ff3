// Package wgctl wraps the wg and wg-quick command-line tools behind a narrow
// interface. The rest of the codebase never shells out directly: tunnel
// activation, deactivation and status queries all go through a Controller, so
// the fragile human-readable output of wg(8) is parsed in exactly one place
// (status.go and duration.go).
package wgctl

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Controller is the tunnel control collaborator consumed by the monitoring
// and reconnection services.
type Controller interface {
	// Activate brings a tunnel up from its config file.
	Activate(ctx context.Context, configPath string) error
	// Deactivate tears a tunnel down.
	Deactivate(ctx context.Context, configPath string) error
	// Status returns the raw `wg show <iface>` output for an interface.
	Status(ctx context.Context, iface string) (string, error)
}

// ExecController runs wg-quick and wg as external processes. Every invocation
// carries a bounded timeout so a hung command cannot wedge a polling loop.
type ExecController struct {
	WgBinary      string
	WgQuickBinary string
	UseSudo       bool
	Timeout       time.Duration

	// runFn is the process runner, overridable in tests.
	runFn func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// NewExecController creates a controller with the given binaries and timeout.
// A zero timeout falls back to 30 seconds.
func NewExecController(wgBinary, wgQuickBinary string, useSudo bool, timeout time.Duration) *ExecController {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExecController{
		WgBinary:      wgBinary,
		WgQuickBinary: wgQuickBinary,
		UseSudo:       useSudo,
		Timeout:       timeout,
		runFn:         runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errOut strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	return out.String(), errOut.String(), err
}

func (c *ExecController) run(ctx context.Context, name string, args ...string) (string, string, error) {
	if c.UseSudo {
		args = append([]string{name}, args...)
		name = "sudo"
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	return c.runFn(ctx, name, args...)
}

func (c *ExecController) Activate(ctx context.Context, configPath string) error {
	_, stderr, err := c.run(ctx, c.WgQuickBinary, "up", configPath)
	if err != nil {
		return fmt.Errorf("wg-quick up %s: %s", configPath, commandError(stderr, err))
	}
	return nil
}

func (c *ExecController) Deactivate(ctx context.Context, configPath string) error {
	_, stderr, err := c.run(ctx, c.WgQuickBinary, "down", configPath)
	if err != nil {
		return fmt.Errorf("wg-quick down %s: %s", configPath, commandError(stderr, err))
	}
	return nil
}

func (c *ExecController) Status(ctx context.Context, iface string) (string, error) {
	stdout, stderr, err := c.run(ctx, c.WgBinary, "show", iface)
	if err != nil {
		return "", fmt.Errorf("wg show %s: %s", iface, commandError(stderr, err))
	}
	return stdout, nil
}

// commandError prefers the command's stderr over the exec error, which is
// usually just "exit status 1".
func commandError(stderr string, err error) string {
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	if err != nil {
		return err.Error()
	}
	return "unknown error"
}
