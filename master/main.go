package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mwindels/remote-raytracer/master/dispatch"
	"github.com/mwindels/remote-raytracer/master/pool"
	"github.com/mwindels/remote-raytracer/shared/screen"
	"github.com/mwindels/remote-raytracer/shared/state"
)

// run renders the scene named by args and returns the process's exit code.
// A frame with unresolved pixels is still saved, but the exit code is 1.
func run(ctx context.Context, args []string) int {
	defaults := dispatch.DefaultConfig()

	flags := flag.NewFlagSet("master", flag.ContinueOnError)
	scenePath := flags.String("scene", "scene.json", "JSON scene file to render")
	workerList := flags.String("workers", "localhost:9000", "comma-separated worker addresses")
	outPath := flags.String("out", "frame.png", "image to write (.png or .webp)")
	width := flags.Int("width", 0, "override the scene's image width")
	height := flags.Int("height", 0, "override the scene's image height")
	scale := flags.Int("scale", 1, "upscale the written image by this factor")
	concurrency := flags.Int("concurrency", defaults.Concurrency, "pixels in flight at once")
	timeout := flags.Duration("timeout", defaults.Timeout, "deadline for each pixel request")
	attempts := flags.Int("attempts", defaults.MaxAttempts, "requests per pixel before giving up on it")
	backup := flags.Duration("backup", defaults.BackupAfter, "send a duplicate request to another worker after this long (0 disables)")
	heartbeat := flags.Duration("heartbeat", pool.DefaultHeartbeatFrequency, "how often workers are pinged")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	// Read in the environment.
	env, err := state.EnvironmentFromFile(*scenePath)
	if err != nil {
		log.Printf("Could not read in environment \"%s\": %v.\n", *scenePath, err)
		return 1
	}
	if *width > 0 {
		env.Cam.Width = *width
	}
	if *height > 0 {
		env.Cam.Height = *height
	}

	// Set up the worker pool.
	addresses := strings.Split(*workerList, ",")
	workers := pool.NewPool(uint(len(addresses)), pool.Config{HeartbeatFrequency: *heartbeat})
	defer workers.Destroy()
	for _, address := range addresses {
		if address = strings.TrimSpace(address); address == "" {
			continue
		}
		if err := workers.Add(address); err != nil {
			log.Printf("Could not add worker \"%s\": %v.\n", address, err)
		}
	}
	if workers.Size() == 0 {
		log.Println("No workers to render with.")
		return 1
	}

	cfg := defaults
	cfg.Concurrency = *concurrency
	cfg.Timeout = *timeout
	cfg.MaxAttempts = *attempts
	cfg.BackupAfter = *backup

	// Render the frame.
	start := time.Now()
	frame, err := dispatch.New(workers, cfg).Render(ctx, env)

	var fatal *dispatch.FatalError
	switch {
	case errors.As(err, &fatal):
		log.Printf("Rendered with %d unresolved pixels: %v.\n", len(fatal.Pixels), fatal.Last)
	case err != nil:
		log.Printf("Failed to render \"%s\": %v.\n", *scenePath, err)
		return 1
	default:
		log.Printf("Rendered %dx%d in %v.\n", frame.Width, frame.Height, time.Since(start))
	}

	if err := screen.Save(*outPath, frame.Scaled(*scale)); err != nil {
		log.Printf("Failed to save \"%s\": %v.\n", *outPath, err)
		return 1
	}

	if fatal != nil {
		return 1
	}
	return 0
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}
