// Package client talks to a remote-admin server over gRPC.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	remoteadminv1 "github.com/go-tangra/go-tangra-remote-admin/api/remoteadmin/v1"
	"github.com/go-tangra/go-tangra-remote-admin/internal/fanout"
)

const unaryTimeout = 30 * time.Second

// Client wraps the RemoteAdmin gRPC client. When secret is non-empty, it is
// sent as the x-client-secret gRPC metadata header on every call.
type Client struct {
	conn   *grpc.ClientConn
	api    remoteadminv1.RemoteAdminClient
	secret string
}

// Dial connects to the server at addr.
func Dial(addr, secret string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to server: %w", err)
	}
	return &Client{conn: conn, api: remoteadminv1.NewRemoteAdminClient(conn), secret: secret}, nil
}

// New wraps an existing connection.
func New(cc grpc.ClientConnInterface, secret string) *Client {
	return &Client{api: remoteadminv1.NewRemoteAdminClient(cc), secret: secret}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.secret == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "x-client-secret", c.secret)
}

// QueryInfo runs a host info round on the server. fn receives every stream
// message in order; the round summary is returned.
func (c *Client) QueryInfo(ctx context.Context, hosts string, fn func(*remoteadminv1.QueryInfoResponse)) (*fanout.Summary, error) {
	stream, err := c.api.QueryInfo(c.outgoing(ctx), &remoteadminv1.QueryInfoRequest{Hosts: hosts})
	if err != nil {
		return nil, fmt.Errorf("query info: %w", err)
	}
	return drain(stream, fn, func(m *remoteadminv1.QueryInfoResponse) *fanout.Summary { return m.Summary })
}

// QuerySoftware runs a software round on the server.
func (c *Client) QuerySoftware(ctx context.Context, req *remoteadminv1.QuerySoftwareRequest, fn func(*remoteadminv1.QuerySoftwareResponse)) (*fanout.Summary, error) {
	stream, err := c.api.QuerySoftware(c.outgoing(ctx), req)
	if err != nil {
		return nil, fmt.Errorf("query software: %w", err)
	}
	return drain(stream, fn, func(m *remoteadminv1.QuerySoftwareResponse) *fanout.Summary { return m.Summary })
}

func drain[T any](stream grpc.ServerStreamingClient[T], fn func(*T), summary func(*T) *fanout.Summary) (*fanout.Summary, error) {
	var sum *fanout.Summary
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, err
		}
		if s := summary(msg); s != nil {
			sum = s
		}
		if fn != nil {
			fn(msg)
		}
	}
}

// Uninstall removes productID from host through the server. It is not
// bounded by the unary timeout since uninstallers may run for minutes.
func (c *Client) Uninstall(ctx context.Context, host, productID string) error {
	if _, err := c.api.Uninstall(c.outgoing(ctx), &remoteadminv1.UninstallRequest{Host: host, ProductID: productID}); err != nil {
		return fmt.Errorf("uninstall: %w", err)
	}
	return nil
}

// Reboot restarts host through the server.
func (c *Client) Reboot(ctx context.Context, host string) error {
	ctx, cancel := context.WithTimeout(c.outgoing(ctx), unaryTimeout)
	defer cancel()
	if _, err := c.api.Reboot(ctx, &remoteadminv1.RebootRequest{Host: host}); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}
