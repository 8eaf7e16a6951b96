// Package health serves the standard gRPC health checking protocol
// (grpc.health.v1.Health) for the relay, so orchestrators can probe it
// without speaking WebSocket.
package health

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the relay.
const ServiceName = "codecollab.relay"

// Service is a gRPC server exposing only the health service.
type Service struct {
	srv    *grpc.Server
	health *health.Server
}

// New builds the gRPC server. interceptor may be nil.
func New(interceptor grpc.UnaryServerInterceptor) *Service {
	var opts []grpc.ServerOption
	if interceptor != nil {
		opts = append(opts, grpc.UnaryInterceptor(interceptor))
	}
	s := &Service{
		srv:    grpc.NewServer(opts...),
		health: health.NewServer(),
	}
	grpc_health_v1.RegisterHealthServer(s.srv, s.health)
	s.SetServing(true)
	return s
}

// SetServing flips the reported status for the relay and the overall server.
func (s *Service) SetServing(serving bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve blocks serving lis until Stop is called.
func (s *Service) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop reports NOT_SERVING to watchers, then stops gracefully.
func (s *Service) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
