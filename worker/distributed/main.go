package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwindels/remote-raytracer/shared/comms"
	"github.com/mwindels/remote-raytracer/worker/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	port := flag.Uint("port", 9000, "port to serve pixel requests on")
	cacheSize := flag.Int("cache", service.DefaultCacheSize, "number of compiled scenes to keep")
	idleTimeout := flag.Duration("idle-timeout", 0, "stop after receiving no requests for this long (0 never stops)")
	drainPeriod := flag.Duration("drain", time.Second, "how long to report draining before stopping on a signal")
	flag.Parse()

	// Set up the worker.
	tracer, err := service.New(*cacheSize)
	if err != nil {
		log.Fatalf("Could not create tracer: %v.\n", err)
	}

	server := grpc.NewServer()
	comms.RegisterRenderServer(server, tracer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(comms.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	// Create a listener for the master.
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("Failed to listen on port \"%d\": %v.\n", *port, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Spin off a goroutine which closes the server if no requests come in within a timeout.
	if *idleTimeout > 0 {
		go tracer.StopWhenIdle(ctx, *idleTimeout, func() {
			log.Printf("Tracer timed out after receiving no requests or pings.\n")
			server.GracefulStop()
		})
	}

	// On a signal, tell pingers to stop sending work, then finish what is in flight.
	go func() {
		<-ctx.Done()
		log.Printf("Draining for %v.\n", *drainPeriod)
		tracer.SetDraining(true)
		healthServer.Shutdown()
		time.Sleep(*drainPeriod)
		server.GracefulStop()
	}()

	log.Printf("Serving pixel requests on port %d.\n", *port)
	if err = server.Serve(listener); err != nil {
		log.Printf("Tracer interrupted: %v.\n", err)
	}
}
