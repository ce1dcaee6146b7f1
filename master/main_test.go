package main

import (
	"context"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwindels/remote-raytracer/shared/comms"
	"github.com/mwindels/remote-raytracer/worker/service"
	"google.golang.org/grpc"
)

const testScene = `{
	"scene": {"type": "sphere", "sphere": {"center": {"x": 0, "y": 0, "z": 0}, "radius": 1},
	          "material": {"diffuse": {"r": 1, "g": 0, "b": 0}, "ambient": {"r": 0.1, "g": 0, "b": 0}}},
	"lights": [{"type": "point", "pos": {"x": 0, "y": 5, "z": 5}, "colour": {"r": 1, "g": 1, "b": 1}, "intensity": 1}],
	"camera": {"eye": {"x": 0, "y": 0, "z": 5}, "lookAt": {"x": 0, "y": 0, "z": 0}, "fov": 30, "width": 8, "height": 6}
}`

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(testScene), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// startWorker serves a real worker over TCP and returns its address.
func startWorker(t *testing.T) string {
	t.Helper()

	worker, err := service.New(4)
	if err != nil {
		t.Fatal(err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	server := grpc.NewServer()
	comms.RegisterRenderServer(server, worker)
	go server.Serve(listener)
	t.Cleanup(server.Stop)

	return listener.Addr().String()
}

// closedAddress returns a local address nothing is listening on.
func closedAddress(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	address := listener.Addr().String()
	listener.Close()
	return address
}

func readSize(t *testing.T, path string) (int, int) {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected %s to be written, got %v", path, err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Expected a PNG, got %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRun_RendersFrame(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frame.png")
	args := []string{"-scene", writeScene(t), "-workers", startWorker(t), "-out", out, "-scale", "2"}

	if code := run(context.Background(), args); code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if w, h := readSize(t, out); w != 16 || h != 12 {
		t.Errorf("Expected a 16x12 image, got %dx%d", w, h)
	}
}

func TestRun_UnresolvedPixelsStillSaveFrame(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frame.png")
	args := []string{
		"-scene", writeScene(t), "-workers", closedAddress(t), "-out", out,
		"-timeout", "500ms", "-attempts", "2", "-backup", "0",
	}

	if code := run(context.Background(), args); code != 1 {
		t.Fatalf("Expected exit code 1, got %d", code)
	}
	if w, h := readSize(t, out); w != 8 || h != 6 {
		t.Errorf("Expected an 8x6 image, got %dx%d", w, h)
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{"bad flag", []string{"-nonsense"}, 2},
		{"missing scene", []string{"-scene", filepath.Join(t.TempDir(), "missing.json")}, 1},
		{"no workers", []string{"-scene", writeScene(t), "-workers", " , "}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(context.Background(), tt.args); code != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, code)
			}
		})
	}
}
