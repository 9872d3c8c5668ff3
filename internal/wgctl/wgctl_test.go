package wgctl

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeRun records invocations and returns canned results.
type fakeRun struct {
	name   string
	args   []string
	stdout string
	stderr string
	err    error
}

func (f *fakeRun) run(_ context.Context, name string, args ...string) (string, string, error) {
	f.name = name
	f.args = args
	return f.stdout, f.stderr, f.err
}

func newTestController(f *fakeRun, sudo bool) *ExecController {
	c := NewExecController("wg", "wg-quick", sudo, 5*time.Second)
	c.runFn = f.run
	return c
}

func TestActivateInvokesWgQuickUp(t *testing.T) {
	f := &fakeRun{}
	c := newTestController(f, false)

	if err := c.Activate(context.Background(), "/etc/wireguard/wg0.conf"); err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	if f.name != "wg-quick" {
		t.Errorf("command = %q, want %q", f.name, "wg-quick")
	}
	if len(f.args) != 2 || f.args[0] != "up" || f.args[1] != "/etc/wireguard/wg0.conf" {
		t.Errorf("args = %v, want [up /etc/wireguard/wg0.conf]", f.args)
	}
}

func TestSudoWrapping(t *testing.T) {
	f := &fakeRun{}
	c := newTestController(f, true)

	if err := c.Deactivate(context.Background(), "/etc/wireguard/wg0.conf"); err != nil {
		t.Fatalf("Deactivate() error: %v", err)
	}
	if f.name != "sudo" {
		t.Errorf("command = %q, want %q", f.name, "sudo")
	}
	if len(f.args) != 3 || f.args[0] != "wg-quick" || f.args[1] != "down" {
		t.Errorf("args = %v, want [wg-quick down ...]", f.args)
	}
}

func TestActivateErrorIncludesStderr(t *testing.T) {
	f := &fakeRun{stderr: "wg0 already exists\n", err: errors.New("exit status 1")}
	c := newTestController(f, false)

	err := c.Activate(context.Background(), "/etc/wireguard/wg0.conf")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "wg0 already exists") {
		t.Errorf("error %q should contain stderr text", err)
	}
}

func TestStatusReturnsRawOutput(t *testing.T) {
	f := &fakeRun{stdout: sampleShowOutput}
	c := newTestController(f, false)

	out, err := c.Status(context.Background(), "wg0")
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if out != sampleShowOutput {
		t.Error("Status() should return the raw command output unchanged")
	}
	if f.name != "wg" || len(f.args) != 2 || f.args[0] != "show" || f.args[1] != "wg0" {
		t.Errorf("command = %q %v, want wg [show wg0]", f.name, f.args)
	}
}

func TestStatusErrorOnMissingInterface(t *testing.T) {
	f := &fakeRun{stderr: "Unable to access interface: No such device", err: errors.New("exit status 1")}
	c := newTestController(f, false)

	if _, err := c.Status(context.Background(), "wg9"); err == nil {
		t.Fatal("expected error for missing interface")
	}
}
