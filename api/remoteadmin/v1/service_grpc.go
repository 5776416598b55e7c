package remoteadminv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/go-tangra/go-tangra-remote-admin/internal/codec"
)

const (
	RemoteAdmin_QuerySoftware_FullMethodName = "/remoteadmin.v1.RemoteAdmin/QuerySoftware"
	RemoteAdmin_QueryInfo_FullMethodName     = "/remoteadmin.v1.RemoteAdmin/QueryInfo"
	RemoteAdmin_Uninstall_FullMethodName     = "/remoteadmin.v1.RemoteAdmin/Uninstall"
	RemoteAdmin_Reboot_FullMethodName        = "/remoteadmin.v1.RemoteAdmin/Reboot"
)

// RemoteAdminClient is the client API for the RemoteAdmin service.
type RemoteAdminClient interface {
	QuerySoftware(ctx context.Context, in *QuerySoftwareRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[QuerySoftwareResponse], error)
	QueryInfo(ctx context.Context, in *QueryInfoRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[QueryInfoResponse], error)
	Uninstall(ctx context.Context, in *UninstallRequest, opts ...grpc.CallOption) (*UninstallResponse, error)
	Reboot(ctx context.Context, in *RebootRequest, opts ...grpc.CallOption) (*RebootResponse, error)
}

type remoteAdminClient struct {
	cc grpc.ClientConnInterface
}

func NewRemoteAdminClient(cc grpc.ClientConnInterface) RemoteAdminClient {
	return &remoteAdminClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.StaticMethod(), grpc.CallContentSubtype(codec.Name)}, opts...)
}

func (c *remoteAdminClient) QuerySoftware(ctx context.Context, in *QuerySoftwareRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[QuerySoftwareResponse], error) {
	stream, err := c.cc.NewStream(ctx, &RemoteAdmin_ServiceDesc.Streams[0], RemoteAdmin_QuerySoftware_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[QuerySoftwareRequest, QuerySoftwareResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *remoteAdminClient) QueryInfo(ctx context.Context, in *QueryInfoRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[QueryInfoResponse], error) {
	stream, err := c.cc.NewStream(ctx, &RemoteAdmin_ServiceDesc.Streams[1], RemoteAdmin_QueryInfo_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[QueryInfoRequest, QueryInfoResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *remoteAdminClient) Uninstall(ctx context.Context, in *UninstallRequest, opts ...grpc.CallOption) (*UninstallResponse, error) {
	out := new(UninstallResponse)
	if err := c.cc.Invoke(ctx, RemoteAdmin_Uninstall_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *remoteAdminClient) Reboot(ctx context.Context, in *RebootRequest, opts ...grpc.CallOption) (*RebootResponse, error) {
	out := new(RebootResponse)
	if err := c.cc.Invoke(ctx, RemoteAdmin_Reboot_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoteAdminServer is the server API for the RemoteAdmin service.
type RemoteAdminServer interface {
	QuerySoftware(*QuerySoftwareRequest, grpc.ServerStreamingServer[QuerySoftwareResponse]) error
	QueryInfo(*QueryInfoRequest, grpc.ServerStreamingServer[QueryInfoResponse]) error
	Uninstall(context.Context, *UninstallRequest) (*UninstallResponse, error)
	Reboot(context.Context, *RebootRequest) (*RebootResponse, error)
}

// UnimplementedRemoteAdminServer can be embedded to stay forward compatible.
type UnimplementedRemoteAdminServer struct{}

func (UnimplementedRemoteAdminServer) QuerySoftware(*QuerySoftwareRequest, grpc.ServerStreamingServer[QuerySoftwareResponse]) error {
	return status.Errorf(codes.Unimplemented, "method QuerySoftware not implemented")
}

func (UnimplementedRemoteAdminServer) QueryInfo(*QueryInfoRequest, grpc.ServerStreamingServer[QueryInfoResponse]) error {
	return status.Errorf(codes.Unimplemented, "method QueryInfo not implemented")
}

func (UnimplementedRemoteAdminServer) Uninstall(context.Context, *UninstallRequest) (*UninstallResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Uninstall not implemented")
}

func (UnimplementedRemoteAdminServer) Reboot(context.Context, *RebootRequest) (*RebootResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Reboot not implemented")
}

func RegisterRemoteAdminServer(s grpc.ServiceRegistrar, srv RemoteAdminServer) {
	s.RegisterService(&RemoteAdmin_ServiceDesc, srv)
}

func _RemoteAdmin_QuerySoftware_Handler(srv any, stream grpc.ServerStream) error {
	m := new(QuerySoftwareRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(RemoteAdminServer).QuerySoftware(m, &grpc.GenericServerStream[QuerySoftwareRequest, QuerySoftwareResponse]{ServerStream: stream})
}

func _RemoteAdmin_QueryInfo_Handler(srv any, stream grpc.ServerStream) error {
	m := new(QueryInfoRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(RemoteAdminServer).QueryInfo(m, &grpc.GenericServerStream[QueryInfoRequest, QueryInfoResponse]{ServerStream: stream})
}

func _RemoteAdmin_Uninstall_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UninstallRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteAdminServer).Uninstall(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RemoteAdmin_Uninstall_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteAdminServer).Uninstall(ctx, req.(*UninstallRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RemoteAdmin_Reboot_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RebootRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteAdminServer).Reboot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RemoteAdmin_Reboot_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteAdminServer).Reboot(ctx, req.(*RebootRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RemoteAdmin_ServiceDesc is the grpc.ServiceDesc for the RemoteAdmin service.
var RemoteAdmin_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "remoteadmin.v1.RemoteAdmin",
	HandlerType: (*RemoteAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Uninstall", Handler: _RemoteAdmin_Uninstall_Handler},
		{MethodName: "Reboot", Handler: _RemoteAdmin_Reboot_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "QuerySoftware", Handler: _RemoteAdmin_QuerySoftware_Handler, ServerStreams: true},
		{StreamName: "QueryInfo", Handler: _RemoteAdmin_QueryInfo_Handler, ServerStreams: true},
	},
	Metadata: "api/remoteadmin/v1",
}
