package rpc

import (
	"fmt"
	"net"

	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// maxConcurrentConns bounds accepted TCP connections. One controller plus
// a generous allowance for reconnect races and health probes; the bridge
// is single-session by design, not a fleet endpoint.
const maxConcurrentConns = 16

// maxMessageBytes admits a full 4K raw-BGRA frame through GetFrame.
const maxMessageBytes = 64 * 1024 * 1024

// Server wraps the gRPC listener for the bridge service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer builds the gRPC server with the bridge service and a standard
// health endpoint attached.
func NewServer(svc *Service) *Server {
	gs := grpc.NewServer(
		grpc.ForceServerCodec(hybridCodec{}),
		grpc.MaxRecvMsgSize(maxMessageBytes),
		grpc.MaxSendMsgSize(maxMessageBytes),
	)
	RegisterService(gs, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpc: gs, health: hs}
}

// Serve listens on 0.0.0.0:port and blocks until Stop. The listener is
// connection-limited so a misbehaving peer cannot exhaust descriptors.
func (s *Server) Serve(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return fmt.Errorf("rpc listen on port %d: %w", port, err)
	}
	log.Info("rpc server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(netutil.LimitListener(lis, maxConcurrentConns))
}

// Stop drains in-flight RPCs and shuts the server down.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
