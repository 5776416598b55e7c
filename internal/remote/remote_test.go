package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     FaultKind
		sentinel error
		message  string
	}{
		{
			"Dial refused",
			fmt.Errorf("failed to dial: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}),
			Unreachable, ErrUnreachable, "Could not connect to other computer",
		},
		{
			"DNS",
			&net.DNSError{Err: "no such host", Name: "nowhere"},
			Unreachable, ErrUnreachable, "Could not connect to other computer",
		},
		{
			"WinRM 401",
			errors.New("http response error: 401 - invalid content type"),
			AccessDenied, ErrAccessDenied, "You do not have permission to open this computer",
		},
		{
			"SSH auth",
			errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]"),
			AccessDenied, ErrAccessDenied, "You do not have permission to open this computer",
		},
		{
			"TLS",
			errors.New("tls: failed to verify certificate: x509: certificate signed by unknown authority"),
			SecurityFault, ErrSecurity, "Security error while connecting",
		},
		{
			"Read reset",
			errors.New("read tcp 10.0.0.1:5985: connection reset by peer"),
			TransportFault, ErrTransport, "Error connecting to computer or another IO Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("srv01", tt.err)
			var f *Fault
			if !errors.As(err, &f) {
				t.Fatalf("Classify returned %T, want *Fault", err)
			}
			if f.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", f.Kind, tt.kind)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			if !errors.Is(err, tt.err) {
				t.Error("Fault should unwrap to the original error")
			}
			if got := f.UserMessage(); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
			if !strings.Contains(err.Error(), "srv01") {
				t.Errorf("Error() = %q, missing host", err.Error())
			}
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	if Classify("h", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
	orig := NewFault(AccessDenied, "a", nil)
	if got := Classify("b", fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Errorf("existing Fault not passed through: %v", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestTCPProber(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	open := ln.Addr().(*net.TCPAddr).Port

	closedLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	closed := closedLn.Addr().(*net.TCPAddr).Port
	closedLn.Close()

	p := &TCPProber{Ports: []int{closed, open}, Timeout: time.Second}
	if !p.Probe(context.Background(), "127.0.0.1") {
		t.Error("Probe = false with one open port")
	}

	p = &TCPProber{Ports: []int{closed}, Timeout: time.Second}
	if p.Probe(context.Background(), "127.0.0.1") {
		t.Error("Probe = true with no open port")
	}
}

func TestNewDialer(t *testing.T) {
	for _, tr := range []string{"", "winrm", "WinRM", "ssh"} {
		if _, err := NewDialer(Options{Transport: tr}); err != nil {
			t.Errorf("NewDialer(%q) error = %v", tr, err)
		}
	}
	if _, err := NewDialer(Options{Transport: "telnet"}); err == nil {
		t.Error("NewDialer(telnet) should fail")
	}
}

func TestCredentials_Account(t *testing.T) {
	if got := (Credentials{Username: "admin"}).Account(); got != "admin" {
		t.Errorf("Account() = %q", got)
	}
	if got := (Credentials{Username: "admin", Domain: "CORP"}).Account(); got != `CORP\admin` {
		t.Errorf("Account() = %q", got)
	}
}

type scriptRunner struct {
	out string
	err error
}

func (r scriptRunner) Stream(_ context.Context, _ string, w io.Writer) error {
	io.WriteString(w, r.out)
	return r.err
}

func (scriptRunner) Close() error { return nil }

func TestOutput(t *testing.T) {
	got, err := Output(context.Background(), scriptRunner{out: "  hello\r\n"}, "x")
	if err != nil || got != "hello" {
		t.Errorf("Output = %q, %v", got, err)
	}
	want := errors.New("boom")
	if _, err := Output(context.Background(), scriptRunner{err: want}, "x"); !errors.Is(err, want) {
		t.Errorf("Output error = %v", err)
	}
}

func TestExitError(t *testing.T) {
	e := &exitError{code: 1, stderr: "  Access is denied.\r\n"}
	if e.Error() != "PowerShell command failed (exit code 1): Access is denied." {
		t.Errorf("Error() = %q", e.Error())
	}
	if f := Classify("h", e).(*Fault); f.Kind != AccessDenied {
		t.Errorf("Kind = %v, want AccessDenied", f.Kind)
	}
}

func TestSSHDialer_SilentPeer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// Accept and never send a banner.
	var held []net.Conn
	defer func() {
		for _, c := range held {
			c.Close()
		}
	}()
	accepted := make(chan net.Conn, 4)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			accepted <- c
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	tests := []struct {
		name    string
		timeout time.Duration
		ctx     time.Duration
	}{
		{"Context deadline", 0, 200 * time.Millisecond},
		{"Dial timeout", 200 * time.Millisecond, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &SSHDialer{opts: Options{
				Credentials: Credentials{Username: "admin", Password: "pw"},
				Port:        port,
				Timeout:     tt.timeout,
			}}
			ctx := context.Background()
			if tt.ctx > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.ctx)
				defer cancel()
			}

			start := time.Now()
			r, err := d.Dial(ctx, "127.0.0.1")
			if err == nil {
				r.Close()
				t.Fatal("Dial succeeded against a silent peer")
			}
			if elapsed := time.Since(start); elapsed > 2*time.Second {
				t.Errorf("Dial returned after %s, want about 200ms", elapsed)
			}
			select {
			case c := <-accepted:
				held = append(held, c)
			case <-time.After(time.Second):
				t.Error("listener never saw the connection")
			}
		})
	}
}

func TestSSHDialer_Cancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		time.Sleep(3 * time.Second)
	}()

	d := &SSHDialer{opts: Options{
		Credentials: Credentials{Username: "admin", Password: "pw"},
		Port:        ln.Addr().(*net.TCPAddr).Port,
	}}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	if _, err := d.Dial(ctx, "127.0.0.1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Dial error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Dial returned after %s", elapsed)
	}
}
