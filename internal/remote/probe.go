package remote

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Prober answers whether a host is worth connecting to.
type Prober interface {
	Probe(ctx context.Context, host string) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, host string) bool

func (f ProberFunc) Probe(ctx context.Context, host string) bool { return f(ctx, host) }

// TCPProber reports a host alive when any of Ports accepts a TCP connection
// within Timeout.
type TCPProber struct {
	Ports   []int
	Timeout time.Duration
}

// DefaultProbePorts are WinRM HTTP/HTTPS, SMB and SSH.
var DefaultProbePorts = []int{5985, 5986, 445, 22}

func (p *TCPProber) Probe(ctx context.Context, host string) bool {
	ports := p.Ports
	if len(ports) == 0 {
		ports = DefaultProbePorts
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan bool, len(ports))
	for _, port := range ports {
		go func(port int) {
			d := net.Dialer{}
			conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
			if err != nil {
				results <- false
				return
			}
			conn.Close()
			results <- true
		}(port)
	}

	for range ports {
		if <-results {
			return true
		}
	}
	return false
}
