// Package grpc exposes the standard gRPC health service for load balancers
// and orchestrators. Serving status follows database reachability.
package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/todolist/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall ("")
// status.
const ServiceName = "todolist"

const defaultProbeInterval = 5 * time.Second

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthServer struct {
	address  string
	db       Pinger
	logger   logging.Logger
	interval time.Duration
	health   *health.Server

	mu      sync.Mutex
	serving bool
}

func NewHealthServer(a string, l logging.Logger, db Pinger) *HealthServer {
	return &HealthServer{
		address:  a,
		db:       db,
		logger:   l.With("module", "grpc_health"),
		interval: defaultProbeInterval,
		health:   health.NewServer(),
	}
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *HealthServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC health server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.probe(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

// probe pings the database and publishes the result. Transitions are logged.
func (s *HealthServer) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	err := s.db.PingContext(pctx)
	ok := err == nil

	s.mu.Lock()
	changed := ok != s.serving
	s.serving = ok
	s.mu.Unlock()

	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)

	if changed {
		if ok {
			s.logger.Info(ctx, "Database reachable")
		} else {
			s.logger.Warn(ctx, "Database unreachable", "error", err)
		}
	}
}
