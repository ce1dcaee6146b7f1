// Package service implements the render service run by distributed workers.
package service

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/golang/protobuf/ptypes/empty"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mwindels/remote-raytracer/shared/comms"
	"github.com/mwindels/remote-raytracer/shared/state"
	"github.com/mwindels/remote-raytracer/worker/shared/tracer"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultCacheSize is how many compiled scenes a worker keeps by default.
const DefaultCacheSize = 16

// Tracer implements the comms.RenderServer interface.
// Each request is answered from its own inputs; compiled scenes are cached read-only.
type Tracer struct {
	scenes   *lru.Cache[string, *tracer.Scene] // Keyed by the digest of the scene.
	aliases  *lru.Cache[string, string]        // Caller keys, bound to the digest of the last scene sent under them.
	compiles singleflight.Group
	draining atomic.Bool
	activity chan struct{}
}

// New creates a tracer that caches up to cacheSize compiled scenes.
func New(cacheSize int) (*Tracer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	scenes, err := lru.New[string, *tracer.Scene](cacheSize)
	if err != nil {
		return nil, err
	}
	aliases, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}

	return &Tracer{scenes: scenes, aliases: aliases, activity: make(chan struct{}, 1)}, nil
}

// touch records that a request arrived, without ever blocking.
func (t *Tracer) touch() {
	select {
	case t.activity <- struct{}{}:
	default:
	}
}

// Ping reports whether this worker accepts work.
func (t *Tracer) Ping(ctx context.Context, req *empty.Empty) (*wrapperspb.Int32Value, error) {
	t.touch()

	if t.draining.Load() {
		return wrapperspb.Int32(int32(comms.StatusDraining)), nil
	}
	return wrapperspb.Int32(int32(comms.StatusReady)), nil
}

// SetDraining changes whether pings report this worker as draining.
// A draining worker still answers pixel requests already on their way.
func (t *Tracer) SetDraining(draining bool) {
	t.draining.Store(draining)
}

// GetPixel traces one pixel of the requested scene.
func (t *Tracer) GetPixel(ctx context.Context, req *comms.PixelRequest) (*comms.PixelReply, error) {
	t.touch()

	// Make sure the RPC hasn't been cancelled.
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	coord, err := state.CoordinateFromSlice(req.Coord)
	if err != nil {
		return nil, comms.ToStatus(err)
	}

	scene, err := t.scene(req)
	if err != nil {
		return nil, comms.ToStatus(err)
	}

	c, err := tracer.Trace(scene, req.Lights, req.Projection, coord)
	if err != nil {
		return nil, comms.ToStatus(err)
	}

	return &comms.PixelReply{Colour: c}, nil
}

// scene returns the compiled scene a request refers to.
// A scene sent in full is always the one traced: it is cached under its own digest, and the caller's key
// is only bound to that digest for later requests that leave the scene out.
func (t *Tracer) scene(req *comms.PixelRequest) (*tracer.Scene, error) {
	if req.Scene == nil {
		if req.SceneKey == "" {
			return nil, state.Errorf(state.KindInvalidScene, "request carries neither a scene nor a scene key")
		}
		if digest, bound := t.aliases.Get(req.SceneKey); bound {
			if s, cached := t.scenes.Get(digest); cached {
				return s, nil
			}
		}
		return nil, state.Errorf(state.KindSceneNotCached, "scene %s is not cached", req.SceneKey)
	}

	// Reject malformed scenes before digesting them, so errors name the actual fault.
	if err := state.Validate(req.Scene); err != nil {
		return nil, err
	}
	digest, err := state.SceneKey(req.Scene)
	if err != nil {
		return nil, state.Errorf(state.KindInvalidScene, "could not digest scene: %v", err)
	}
	if req.SceneKey != "" {
		t.aliases.Add(req.SceneKey, digest)
	}

	if s, cached := t.scenes.Get(digest); cached {
		return s, nil
	}

	// Concurrent requests for the same new scene share one compilation.
	compiled, err, _ := t.compiles.Do(digest, func() (any, error) {
		s, err := tracer.Compile(req.Scene)
		if err != nil {
			return nil, err
		}

		t.scenes.Add(digest, s)
		log.Printf("Compiled scene %.12s (%d primitives).\n", digest, s.Len())
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return compiled.(*tracer.Scene), nil
}

// CachedScenes returns how many compiled scenes are cached.
func (t *Tracer) CachedScenes() int {
	return t.scenes.Len()
}

// StopWhenIdle calls stop once no request has arrived for timeout, or returns when ctx is done.
// This function should be spun off as a goroutine.
func (t *Tracer) StopWhenIdle(ctx context.Context, timeout time.Duration, stop func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.activity:
		case <-time.After(timeout):
			stop()
			return
		}
	}
}
