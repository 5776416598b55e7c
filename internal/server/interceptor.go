package server

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// allowedClientSecretUnaryMethods lists unary RPCs that client-secret callers may invoke.
var allowedClientSecretUnaryMethods = map[string]bool{
	"/remoteadmin.v1.RemoteAdmin/Uninstall": true,
	"/remoteadmin.v1.RemoteAdmin/Reboot":    true,
}

// allowedClientSecretStreamMethods lists streaming RPCs that client-secret callers may invoke.
var allowedClientSecretStreamMethods = map[string]bool{
	"/remoteadmin.v1.RemoteAdmin/QuerySoftware": true,
	"/remoteadmin.v1.RemoteAdmin/QueryInfo":     true,
}

// publicMethodPrefix marks RPCs served without a secret.
const publicMethodPrefix = "/grpc.health.v1.Health/"

// ClientSecretInterceptor returns a gRPC unary server interceptor that
// validates the x-client-secret metadata header. When the secret is non-empty,
// only the RemoteAdmin RPCs are allowed for client-secret authenticated callers.
// An empty secret disables authentication (pass-through).
func ClientSecretInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if secret == "" || strings.HasPrefix(info.FullMethod, publicMethodPrefix) {
			return handler(ctx, req)
		}
		if err := checkClientSecret(ctx, secret, info.FullMethod, allowedClientSecretUnaryMethods); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// ClientSecretStreamInterceptor is the streaming counterpart of
// ClientSecretInterceptor.
func ClientSecretStreamInterceptor(secret string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if secret == "" || strings.HasPrefix(info.FullMethod, publicMethodPrefix) {
			return handler(srv, ss)
		}
		if err := checkClientSecret(ss.Context(), secret, info.FullMethod, allowedClientSecretStreamMethods); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func checkClientSecret(ctx context.Context, secret, method string, allowed map[string]bool) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	vals := md.Get(ClientSecretKey)
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing x-client-secret")
	}

	if subtle.ConstantTimeCompare([]byte(vals[0]), []byte(secret)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid x-client-secret")
	}

	if !allowed[method] {
		return status.Error(codes.PermissionDenied, "client-secret not permitted for this method")
	}
	return nil
}

// ClientSecretKey is the metadata key carrying the gRPC client secret.
const ClientSecretKey = "x-client-secret"
