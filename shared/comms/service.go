package comms

import (
	"context"

	"github.com/golang/protobuf/ptypes/empty"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the render service.
const ServiceName = "raytracer.Render"

const (
	pingMethod     = "/" + ServiceName + "/Ping"
	getPixelMethod = "/" + ServiceName + "/GetPixel"
)

// RenderServer is the server API for the render service.
type RenderServer interface {
	// Ping reports whether the worker is ready for work.
	Ping(context.Context, *empty.Empty) (*wrapperspb.Int32Value, error)

	// GetPixel traces one pixel of a scene.
	GetPixel(context.Context, *PixelRequest) (*PixelReply, error)
}

// RegisterRenderServer registers srv with s.
func RegisterRenderServer(s grpc.ServiceRegistrar, srv RenderServer) {
	s.RegisterService(&renderServiceDesc, srv)
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RenderServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: pingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RenderServer).Ping(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getPixelHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PixelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RenderServer).GetPixel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getPixelMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RenderServer).GetPixel(ctx, req.(*PixelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var renderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RenderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "GetPixel", Handler: getPixelHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "raytracer/render",
}
