package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName is the fully qualified RPC service name.
const serviceName = "kestrel.bridge.v1.Bridge"

// RegisterService attaches the bridge service to a gRPC server. The
// descriptor is written by hand: the messages are plain structs under the
// JSON codec, so there is no generated registration to lean on.
func RegisterService(s grpc.ServiceRegistrar, svc *Service) {
	s.RegisterService(&serviceDesc, svc)
}

// unary adapts a typed method onto grpc's handler shape, keeping the
// descriptor table below free of per-method boilerplate.
func unary[Req any, Resp any](method string, call func(*Service, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(*Service), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(*Service), ctx, req.(*Req))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary("RegisterAgent", (*Service).RegisterAgent),
		unary("UnregisterAgent", (*Service).UnregisterAgent),
		unary("Heartbeat", (*Service).Heartbeat),
		unary("SetInputLock", (*Service).SetInputLock),
		unary("StartCapture", (*Service).StartCapture),
		unary("StopCapture", (*Service).StopCapture),
		unary("GetFrame", (*Service).GetFrame),
		unary("StartAudio", (*Service).StartAudio),
		unary("StopAudio", (*Service).StopAudio),
		unary("InjectMouseMove", (*Service).InjectMouseMove),
		unary("InjectMouseClick", (*Service).InjectMouseClick),
		unary("InjectKeyPress", (*Service).InjectKeyPress),
		unary("GetSystemInfo", (*Service).GetSystemInfo),
		unary("GetWindowList", (*Service).GetWindowList),
		unary("GetProcessList", (*Service).GetProcessList),
		unary("GetBrowserTabs", (*Service).GetBrowserTabs),
		unary("ListFiles", (*Service).ListFiles),
		unary("GetClipboard", (*Service).GetClipboard),
		unary("GetKeyboardShortcuts", (*Service).GetKeyboardShortcuts),
		unary("NegotiateWebRTC", (*Service).NegotiateWebRTC),
		unary("LaunchApplication", (*Service).LaunchApplication),
		unary("CloseApplication", (*Service).CloseApplication),
		unary("TakeScreenshot", (*Service).TakeScreenshot),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamFrames",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(StreamFramesRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(*Service).StreamFrames(in, &frameStreamServer{stream})
			},
		},
		{
			StreamName:    "StreamAudio",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(StreamAudioRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(*Service).StreamAudio(in, &audioStreamServer{stream})
			},
		},
	},
	Metadata: "bridge.json",
}
