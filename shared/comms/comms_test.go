package comms

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/golang/protobuf/ptypes/empty"
	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/geom"
	"github.com/mwindels/remote-raytracer/shared/state"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// echoServer replies with a colour derived from the request, or with err if it is set.
type echoServer struct {
	mu     sync.Mutex
	status Status
	err    error
	last   *PixelRequest
}

func (s *echoServer) Ping(ctx context.Context, req *empty.Empty) (*wrapperspb.Int32Value, error) {
	return wrapperspb.Int32(int32(s.status)), nil
}

func (s *echoServer) GetPixel(ctx context.Context, req *PixelRequest) (*PixelReply, error) {
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()

	if s.err != nil {
		return nil, ToStatus(s.err)
	}
	return &PixelReply{Colour: colour.RGB{R: float64(req.Coord[0]) / 10, G: float64(req.Coord[1]) / 10, B: 0.5}}, nil
}

func startServer(t *testing.T, srv RenderServer) *Client {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterRenderServer(server, srv)
	go server.Serve(listener)
	t.Cleanup(server.Stop)

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPing(t *testing.T) {
	for _, s := range []Status{StatusReady, StatusDraining} {
		client := startServer(t, &echoServer{status: s})

		got, err := client.Ping(testContext(t))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got != s {
			t.Errorf("Expected %v, got %v", s, got)
		}
	}
}

func TestGetPixel_CarriesSceneGraph(t *testing.T) {
	srv := &echoServer{status: StatusReady}
	client := startServer(t, srv)

	mat := state.Material{Diffuse: colour.RGB{R: 1}}
	scene := state.NewGroup(
		state.NewSphere(geom.Vector{Z: -3}, 1, mat),
		state.NewPlane(geom.Vector{Y: -1}, geom.Vector{Y: 1}, mat),
	).WithTransform(geom.Translation(geom.Vector{X: 1}))
	req := &PixelRequest{
		SceneKey:   "key",
		Scene:      scene,
		Lights:     []state.Light{state.NewPointLight(geom.Vector{Y: 5}, colour.RGB{R: 1, G: 1, B: 1}, 1)},
		Projection: state.NewProjection(geom.Vector{Z: 5}, geom.Vector{}, 1, 10, 10),
		Coord:      []int32{3, 7},
	}

	got, err := client.GetPixel(testContext(t), req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if expected := (colour.RGB{R: 0.3, G: 0.7, B: 0.5}); got != expected {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	sentKey, _ := state.SceneKey(scene)
	receivedKey, err := state.SceneKey(srv.last.Scene)
	if err != nil || sentKey != receivedKey {
		t.Errorf("Expected the scene to arrive intact (err=%v)", err)
	}
	if srv.last.Projection != req.Projection || len(srv.last.Lights) != 1 || srv.last.Lights[0] != req.Lights[0] {
		t.Errorf("Expected the lights and projection to arrive intact, got %+v", srv.last)
	}
}

func TestGetPixel_ErrorKindsSurvive(t *testing.T) {
	for _, kind := range []state.ErrorKind{
		state.KindInvalidScene,
		state.KindInvalidCoordinate,
		state.KindInvalidLight,
		state.KindInvalidProjection,
		state.KindSceneNotCached,
	} {
		t.Run(kind.String(), func(t *testing.T) {
			client := startServer(t, &echoServer{err: state.Errorf(kind, "bad request")})

			_, err := client.GetPixel(testContext(t), &PixelRequest{Coord: []int32{0, 0}})
			if state.KindOf(err) != kind {
				t.Errorf("Expected %v, got %v", kind, err)
			}

			var serr *state.Error
			if errors.As(err, &serr) && serr.Msg != "bad request" {
				t.Errorf("Expected the message to survive, got %q", serr.Msg)
			}
		})
	}
}

func TestGetPixel_UnreachableWorkerIsTransportError(t *testing.T) {
	listener := bufconn.Listen(1 << 20)
	listener.Close()

	client, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := client.GetPixel(ctx, &PixelRequest{Coord: []int32{0, 0}}); state.KindOf(err) != state.KindTransport {
		t.Errorf("Expected %v, got %v", state.KindTransport, err)
	}
	if _, err := client.Ping(ctx); state.KindOf(err) != state.KindTransport {
		t.Errorf("Expected %v, got %v", state.KindTransport, err)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected codes.Code
	}{
		{"validation", state.Errorf(state.KindInvalidLight, "x"), codes.InvalidArgument},
		{"not cached", state.Errorf(state.KindSceneNotCached, "x"), codes.FailedPrecondition},
		{"computation", state.Errorf(state.KindComputation, "x"), codes.Internal},
		{"plain", errors.New("x"), codes.Internal},
		{"status", status.Error(codes.Unavailable, "x"), codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(ToStatus(tt.err)); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}

	if ToStatus(nil) != nil || FromStatus(nil) != nil {
		t.Error("Expected nil errors to stay nil")
	}
	if kind := state.KindOf(FromStatus(status.Error(codes.Unavailable, "x"))); kind != state.KindTransport {
		t.Errorf("Expected a bare status to be %v, got %v", state.KindTransport, kind)
	}
}
