// Package dispatch renders frames by farming every pixel out to remote workers.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwindels/remote-raytracer/master/pool"
	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/comms"
	"github.com/mwindels/remote-raytracer/shared/screen"
	"github.com/mwindels/remote-raytracer/shared/state"
	"golang.org/x/sync/errgroup"
)

// Assigner hands pixel requests to workers.
// *pool.Pool implements this interface.
type Assigner interface {
	Assign(req *comms.PixelRequest, timeout time.Duration, avoid string) (<-chan pool.Outcome, string, error)
}

// Config controls how a dispatcher issues and retries requests.
type Config struct {
	Concurrency int           // Pixels in flight at once.
	Timeout     time.Duration // Per-call deadline.
	MaxAttempts int           // Calls per pixel before it is given up on.
	BackupAfter time.Duration // Delay before a duplicate call to another worker; 0 disables backups.
	ErrorColour colour.RGB    // Colour of pixels that could not be rendered.

	// ProgressEvery is how often progress is logged; 0 disables progress logging.
	ProgressEvery time.Duration
}

// DefaultConfig returns the configuration used by the master when no flags override it.
func DefaultConfig() Config {
	return Config{
		Concurrency:   64,
		Timeout:       10 * time.Second,
		MaxAttempts:   3,
		BackupAfter:   2 * time.Second,
		ErrorColour:   colour.RGB{R: 1, B: 1},
		ProgressEvery: 2 * time.Second,
	}
}

// FatalError reports the pixels that could not be rendered after every attempt.
type FatalError struct {
	Pixels []state.PixelCoordinate
	Last   error // The error of the last failed attempt at the last pixel.
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%d pixels could not be rendered: %v", len(e.Pixels), e.Last)
}

func (e *FatalError) Unwrap() error {
	return e.Last
}

// Dispatcher renders frames using remote workers.
type Dispatcher struct {
	workers Assigner
	cfg     Config
}

// New creates a dispatcher that sends its requests to workers.
func New(workers Assigner, cfg Config) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Dispatcher{workers: workers, cfg: cfg}
}

// Render computes every pixel of env.
//
// Invalid input is rejected before any request is sent, and a validation error from any worker
// stops the render. Pixels that fail for any other reason are retried on other workers; pixels that
// run out of attempts are filled with the error colour and reported in a *FatalError, returned
// alongside the partial frame.
func (d *Dispatcher) Render(ctx context.Context, env state.Environment) (*screen.Frame, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	key, err := state.SceneKey(env.Root)
	if err != nil {
		return nil, state.Errorf(state.KindInvalidScene, "could not digest scene: %v", err)
	}

	width, height := env.Cam.Width, env.Cam.Height
	frame := screen.NewFrame(width, height)
	total := width * height

	var processed atomic.Int64
	var failure struct {
		sync.Mutex
		last error
	}

	// Progress reporter
	start := time.Now()
	done := make(chan struct{})
	defer close(done)
	if d.cfg.ProgressEvery > 0 {
		go func() {
			ticker := time.NewTicker(d.cfg.ProgressEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					log.Printf("Rendered %d/%d pixels (%.1f pixels/sec).\n", p, total, float64(p)/time.Since(start).Seconds())
				}
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)

	for j := 0; j < height && gctx.Err() == nil; j++ {
		for i := 0; i < width && gctx.Err() == nil; i++ {
			c := state.PixelCoordinate{X: i, Y: j}
			req := &comms.PixelRequest{
				SceneKey:   key,
				Scene:      env.Root,
				Lights:     env.Lights,
				Projection: env.Cam,
				Coord:      c.Slice(),
			}

			g.Go(func() error {
				defer processed.Add(1)

				col, err := d.pixel(gctx, req)
				switch {
				case err == nil:
					frame.Set(c, col)
				case state.KindOf(err).Validation() || gctx.Err() != nil:
					return err
				default:
					frame.Set(c, d.cfg.ErrorColour)
					frame.MarkUnresolved(c)

					failure.Lock()
					failure.last = err
					failure.Unlock()
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return frame, err
	}
	if err := ctx.Err(); err != nil {
		return frame, err
	}

	if unresolved := frame.Unresolved(); len(unresolved) > 0 {
		return frame, &FatalError{Pixels: unresolved, Last: failure.last}
	}
	return frame, nil
}

// pixel computes one pixel, retrying on another worker after each transport failure.
func (d *Dispatcher) pixel(ctx context.Context, req *comms.PixelRequest) (colour.RGB, error) {
	var lastErr error
	avoid := ""

	for attempt := 0; attempt < d.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			// Back off a little, as the pool may be waiting on workers.
			select {
			case <-ctx.Done():
				return colour.RGB{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			}
		}

		c, worker, err := d.attempt(ctx, req, avoid)
		if err == nil {
			return c, nil
		}
		if state.KindOf(err).Validation() || ctx.Err() != nil {
			return colour.RGB{}, err
		}

		lastErr = err
		if worker != "" {
			avoid = worker
		}
	}

	return colour.RGB{}, lastErr
}

// attempt makes one call for a pixel, plus a backup call to another worker if the first is slow.
// The first successful outcome wins. This function returns the colour, the worker that failed (if any), and the error.
func (d *Dispatcher) attempt(ctx context.Context, req *comms.PixelRequest, avoid string) (colour.RGB, string, error) {
	primary, primaryWorker, err := d.workers.Assign(req, d.cfg.Timeout, avoid)
	if err != nil {
		return colour.RGB{}, "", err
	}

	var backup <-chan pool.Outcome
	var backupTimer <-chan time.Time
	if d.cfg.BackupAfter > 0 {
		timer := time.NewTimer(d.cfg.BackupAfter)
		defer timer.Stop()
		backupTimer = timer.C
	}

	pending := 1
	failed := pool.Outcome{Worker: primaryWorker}
	for pending > 0 {
		var o pool.Outcome
		select {
		case <-ctx.Done():
			return colour.RGB{}, "", ctx.Err()
		case <-backupTimer:
			backupTimer = nil
			if ch, _, err := d.workers.Assign(req, d.cfg.Timeout, primaryWorker); err == nil {
				backup = ch
				pending++
			}
			continue
		case o = <-primary:
			primary = nil
		case o = <-backup:
			backup = nil
		}

		pending--
		if o.Err == nil {
			return o.Colour, "", nil
		}
		if state.KindOf(o.Err).Validation() {
			return colour.RGB{}, o.Worker, o.Err
		}
		failed = o
	}

	return colour.RGB{}, failed.Worker, failed.Err
}
