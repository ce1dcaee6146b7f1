package main

import (
	"flag"
	"log"
	"time"

	"github.com/mwindels/remote-raytracer/shared/screen"
	"github.com/mwindels/remote-raytracer/shared/state"
	"github.com/mwindels/remote-raytracer/worker/shared/tracer"
)

// draw traces every pixel of an environment into a new frame.
func draw(env state.Environment) (*screen.Frame, error) {
	scene, err := tracer.Compile(env.Root)
	if err != nil {
		return nil, err
	}

	frame := screen.NewFrame(env.Cam.Width, env.Cam.Height)

	// For every pixel on screen...
	for j := 0; j < env.Cam.Height; j++ {
		for i := 0; i < env.Cam.Width; i++ {
			c := state.PixelCoordinate{X: i, Y: j}

			col, err := tracer.Trace(scene, env.Lights, env.Cam, c)
			if err != nil {
				return nil, err
			}
			frame.Set(c, col)
		}
	}

	return frame, nil
}

func main() {
	scenePath := flag.String("scene", "scene.json", "JSON scene file to render")
	outPath := flag.String("out", "frame.png", "image to write (.png or .webp)")
	width := flag.Int("width", 0, "override the scene's image width")
	height := flag.Int("height", 0, "override the scene's image height")
	scale := flag.Int("scale", 1, "upscale the written image by this factor")
	flag.Parse()

	env, err := state.EnvironmentFromFile(*scenePath)
	if err != nil {
		log.Fatalf("Could not load scene \"%s\": %v.\n", *scenePath, err)
	}
	if *width > 0 {
		env.Cam.Width = *width
	}
	if *height > 0 {
		env.Cam.Height = *height
	}

	start := time.Now()
	frame, err := draw(env)
	if err != nil {
		log.Fatalf("Failed to render \"%s\": %v.\n", *scenePath, err)
	}
	log.Printf("Rendered %dx%d in %v.\n", frame.Width, frame.Height, time.Since(start))

	if err := screen.Save(*outPath, frame.Scaled(*scale)); err != nil {
		log.Fatalf("Failed to save \"%s\": %v.\n", *outPath, err)
	}
}
