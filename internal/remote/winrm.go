package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/masterzen/winrm"
)

const defaultWinRMPort = 5985

// WinRMDialer opens WinRM clients.
// - If domain is empty, uses Basic Auth
// - If domain is provided, uses NTLM Auth
// - If HTTPS is set, uses the HTTPS endpoint (typically port 5986)
type WinRMDialer struct {
	opts Options
}

func (d *WinRMDialer) Dial(_ context.Context, host string) (Runner, error) {
	port := d.opts.Port
	if port == 0 {
		port = defaultWinRMPort
		if d.opts.HTTPS {
			port = 5986
		}
	}

	endpoint := winrm.NewEndpoint(host, port, d.opts.HTTPS, d.opts.Insecure, nil, nil, nil, d.opts.Timeout)

	params := winrm.NewParameters("PT60S", "en-US", 153600)
	if d.opts.Credentials.Domain != "" {
		params.TransportDecorator = func() winrm.Transporter {
			return &winrm.ClientNTLM{}
		}
	}

	client, err := winrm.NewClientWithParameters(endpoint, d.opts.Credentials.Account(), d.opts.Credentials.Password, params)
	if err != nil {
		return nil, Classify(host, fmt.Errorf("failed to create WinRM client: %w", err))
	}
	return &winrmRunner{client: client, host: host}, nil
}

type winrmRunner struct {
	client *winrm.Client
	host   string
}

func (r *winrmRunner) Stream(ctx context.Context, script string, stdout io.Writer) error {
	var stderr bytes.Buffer
	code, err := r.client.RunWithContext(ctx, winrm.Powershell(script), stdout, &stderr)
	if err != nil {
		return Classify(r.host, fmt.Errorf("WinRM execution failed: %w", err))
	}
	if code != 0 {
		return Classify(r.host, &exitError{code: code, stderr: stderr.String()})
	}
	return nil
}

// Close is a no-op: WinRM shells are opened per command.
func (r *winrmRunner) Close() error { return nil }
