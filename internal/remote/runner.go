// Package remote runs PowerShell on remote Windows hosts and classifies the
// ways that can fail.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Runner executes scripts on one host.
type Runner interface {
	// Stream runs script and copies its standard output to stdout as it is produced.
	Stream(ctx context.Context, script string, stdout io.Writer) error
	Close() error
}

// Dialer opens a Runner for a host.
type Dialer interface {
	Dial(ctx context.Context, host string) (Runner, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, host string) (Runner, error)

func (f DialerFunc) Dial(ctx context.Context, host string) (Runner, error) { return f(ctx, host) }

// Credentials authenticate against a remote host. An empty Username means
// the transport's default identity.
type Credentials struct {
	Username   string
	Password   string
	Domain     string
	PrivateKey []byte
	Passphrase string
}

// Account returns the logon name, domain-qualified when a domain is set.
func (c Credentials) Account() string {
	if c.Domain == "" {
		return c.Username
	}
	return fmt.Sprintf("%s\\%s", c.Domain, c.Username)
}

// Options select and parameterize a transport.
type Options struct {
	Transport   string
	Credentials Credentials
	Port        int
	HTTPS       bool
	Insecure    bool
	Timeout     time.Duration
}

// Transport names.
const (
	TransportWinRM = "winrm"
	TransportSSH   = "ssh"
)

// NewDialer returns the Dialer for opts.Transport.
func NewDialer(opts Options) (Dialer, error) {
	switch strings.ToLower(opts.Transport) {
	case "", TransportWinRM:
		return &WinRMDialer{opts: opts}, nil
	case TransportSSH:
		return &SSHDialer{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", opts.Transport)
	}
}

// Output runs script and returns its trimmed standard output.
func Output(ctx context.Context, r Runner, script string) (string, error) {
	var buf bytes.Buffer
	if err := r.Stream(ctx, script, &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

type exitError struct {
	code   int
	stderr string
}

func (e *exitError) Error() string {
	msg := strings.TrimSpace(e.stderr)
	if msg == "" {
		return fmt.Sprintf("PowerShell command failed (exit code %d)", e.code)
	}
	return fmt.Sprintf("PowerShell command failed (exit code %d): %s", e.code, msg)
}
