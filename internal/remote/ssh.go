package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/masterzen/winrm"
	"golang.org/x/crypto/ssh"
)

// SSHDialer opens SSH sessions to hosts running the OpenSSH server, with
// key-based auth when a private key is configured and password auth otherwise.
type SSHDialer struct {
	opts Options
}

func (d *SSHDialer) Dial(ctx context.Context, host string) (Runner, error) {
	config, err := d.clientConfig()
	if err != nil {
		return nil, err
	}

	port := d.opts.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: d.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, Classify(host, fmt.Errorf("failed to dial: %w", err))
	}

	// The handshake is bounded by the context and the dial timeout.
	_ = conn.SetDeadline(handshakeDeadline(ctx, d.opts.Timeout))
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if !stop() {
		if err == nil {
			sshConn.Close()
		}
		conn.Close()
		return nil, Classify(host, ctx.Err())
	}
	if err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, Classify(host, ctx.Err())
		}
		return nil, Classify(host, fmt.Errorf("failed to establish SSH connection: %w", err))
	}
	_ = conn.SetDeadline(time.Time{})
	return &sshRunner{client: ssh.NewClient(sshConn, chans, reqs), host: host}, nil
}

// handshakeDeadline returns the earlier of the context deadline and now plus
// timeout. The zero time means no deadline.
func handshakeDeadline(ctx context.Context, timeout time.Duration) time.Time {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}

func (d *SSHDialer) clientConfig() (*ssh.ClientConfig, error) {
	creds := d.opts.Credentials
	if creds.Username == "" {
		return nil, errors.New("ssh transport requires a username")
	}

	var auth ssh.AuthMethod
	switch {
	case len(creds.PrivateKey) > 0:
		var (
			signer ssh.Signer
			err    error
		)
		if creds.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(creds.PrivateKey, []byte(creds.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(creds.PrivateKey)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = ssh.PublicKeys(signer)
	case creds.Password != "":
		auth = ssh.Password(creds.Password)
	default:
		return nil, errors.New("ssh transport requires a password or private key")
	}

	return &ssh.ClientConfig{
		User:            creds.Account(),
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.opts.Timeout,
	}, nil
}

type sshRunner struct {
	client *ssh.Client
	host   string
}

func (r *sshRunner) Stream(ctx context.Context, script string, stdout io.Writer) error {
	session, err := r.client.NewSession()
	if err != nil {
		return Classify(r.host, fmt.Errorf("failed to create session: %w", err))
	}
	defer session.Close()

	var stderr bytes.Buffer
	session.Stdout = stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(winrm.Powershell(script)) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return Classify(r.host, ctx.Err())
	}

	var exit *ssh.ExitError
	if errors.As(err, &exit) {
		return Classify(r.host, &exitError{code: exit.ExitStatus(), stderr: stderr.String()})
	}
	if err != nil {
		return Classify(r.host, fmt.Errorf("command failed: %w", err))
	}
	return nil
}

func (r *sshRunner) Close() error { return r.client.Close() }
