// Package pool provides a worker pool object for use by the master.
package pool

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/comms"
	"github.com/mwindels/remote-raytracer/shared/state"
)

// These constants are the heartbeat settings used when a Config leaves them unset.
const (
	// DefaultHeartbeatFrequency controls how often heartbeats are sent to each worker in a pool.
	DefaultHeartbeatFrequency = 500 * time.Millisecond

	// DefaultHeartbeatTimeout controls how long heartbeats are waited on before the associated worker is assumed to be disconnected.
	DefaultHeartbeatTimeout = 1000 * time.Millisecond
)

// Conn is a connection to a single worker.
// *comms.Client implements this interface.
type Conn interface {
	Ping(ctx context.Context) (comms.Status, error)
	GetPixel(ctx context.Context, req *comms.PixelRequest) (colour.RGB, error)
	Close() error
}

// Dialer connects to the worker at address.
type Dialer func(address string) (Conn, error)

// DialWorker connects to a worker over gRPC.
func DialWorker(address string) (Conn, error) {
	return comms.Dial(address)
}

// Config controls how a pool connects to and monitors its workers.
type Config struct {
	HeartbeatFrequency time.Duration
	HeartbeatTimeout   time.Duration
	Dial               Dialer // nil uses DialWorker.
}

// Outcome is the result of one assigned pixel request.
type Outcome struct {
	Colour colour.RGB
	Worker string // Address of the worker that handled the request.
	Err    error  // Always a *state.Error when set.
}

// worker represents an entry in a pool.
type worker struct {
	address        string
	connection     Conn
	stopHeartbeats chan struct{}
	closing        bool

	// scenes holds the keys of scenes the worker is known to have compiled.
	scenes map[string]struct{}

	tasks uint
	index uint
}

// Pool represents a threadsafe worker pool.
// Work goes to the worker with the fewest tasks in flight.
type Pool struct {
	mu        sync.RWMutex
	heap      []*worker
	addresses map[string]*worker
	cfg       Config
}

// NewPool creates a new worker pool with a given initial capacity.
func NewPool(c uint, cfg Config) *Pool {
	if cfg.HeartbeatFrequency <= 0 {
		cfg.HeartbeatFrequency = DefaultHeartbeatFrequency
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if cfg.Dial == nil {
		cfg.Dial = DialWorker
	}

	return &Pool{
		heap:      make([]*worker, 0, c),
		addresses: make(map[string]*worker),
		cfg:       cfg,
	}
}

// Destroy cleans up a worker pool.
func (p *Pool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Close all the open connections.
	for _, w := range p.addresses {
		p.remove(w)
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() uint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return uint(len(p.heap))
}

// Contains returns whether the worker at address is in the pool.
func (p *Pool) Contains(address string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, exists := p.addresses[address]
	return exists
}

// swap swaps two workers in the heap.
// This function assumes that the heap has already been locked.
func (p *Pool) swap(i, j uint) {
	if i < uint(len(p.heap)) && j < uint(len(p.heap)) {
		p.heap[i], p.heap[j] = p.heap[j], p.heap[i]

		// Update their indices.
		p.heap[i].index = i
		p.heap[j].index = j
	}
}

// inHeap returns whether w is still in the heap.
// This function assumes that the heap has already been locked.
func (p *Pool) inHeap(w *worker) bool {
	return w != nil && w.index < uint(len(p.heap)) && p.heap[w.index] == w
}

// bubbleUp pushes a worker up the heap as long as it has fewer tasks than its parent.
// This function assumes that the heap has already been locked.
func (p *Pool) bubbleUp(w *worker) {
	if !p.inHeap(w) {
		return
	}

	// While the worker has a parent...
	for i := w.index; i > 0; {
		parent := (i - 1) / 2

		// If the worker has fewer tasks than its parent, bubble up.
		if p.heap[i].tasks >= p.heap[parent].tasks {
			break
		}
		p.swap(i, parent)
		i = parent
	}
}

// bubbleDown pushes a worker down the heap as long as it has more tasks than one of its children.
// This function assumes that the heap has already been locked.
func (p *Pool) bubbleDown(w *worker) {
	if !p.inHeap(w) {
		return
	}

	// While the worker has at least one child...
	for i := w.index; 2*i+1 < uint(len(p.heap)); {
		// Compare against the child with fewer tasks.
		child := 2*i + 1
		if right := 2*i + 2; right < uint(len(p.heap)) && p.heap[right].tasks < p.heap[child].tasks {
			child = right
		}

		// If the worker has more tasks than that child, bubble down.
		if p.heap[i].tasks <= p.heap[child].tasks {
			break
		}
		p.swap(i, child)
		i = child
	}
}

// pick returns the least busy worker, preferring any worker other than the one at avoid.
// This function assumes that the heap has already been locked and is not empty.
func (p *Pool) pick(avoid string) *worker {
	best := p.heap[0]
	if best.address != avoid {
		return best
	}

	// The next least busy worker is one of the root's children.
	var next *worker
	for _, i := range []int{1, 2} {
		if i < len(p.heap) && (next == nil || p.heap[i].tasks < next.tasks) {
			next = p.heap[i]
		}
	}
	if next != nil {
		return next
	}
	return best
}

// Assign assigns a pixel request to the worker who is the least busy.
// If avoid names a worker and another worker exists, the other worker is used.
// This function returns the channel that receives the request's one outcome, and the address of the chosen worker.
func (p *Pool) Assign(req *comms.PixelRequest, timeout time.Duration, avoid string) (<-chan Outcome, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.heap) == 0 {
		return nil, "", state.Errorf(state.KindTransport, "no workers to which pixel %v can be assigned", req.Coord)
	}

	assignee := p.pick(avoid)

	// Assign the task and re-arrange the heap.
	assignee.tasks += 1
	p.bubbleDown(assignee)

	// Leave the scene out if the worker already has it.
	sent := req
	if _, cached := assignee.scenes[req.SceneKey]; cached && req.SceneKey != "" {
		bare := *req
		bare.Scene = nil
		sent = &bare
	}

	out := make(chan Outcome, 1)

	// Perform the task.
	go func() {
		// Create a timeout for the pixel request.
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		c, err := assignee.connection.GetPixel(ctx, sent)

		// The worker lost the scene, so send it again in full.
		if state.KindOf(err) == state.KindSceneNotCached && sent != req {
			p.forgetScene(assignee, req.SceneKey)
			sent = req
			c, err = assignee.connection.GetPixel(ctx, sent)
		}

		func() {
			p.mu.Lock()
			defer p.mu.Unlock()

			if err == nil && sent.Scene != nil && req.SceneKey != "" {
				assignee.scenes[req.SceneKey] = struct{}{}
			}

			// Complete the task and re-arrange the heap (if the assignee is still in it).
			assignee.tasks -= 1
			p.bubbleUp(assignee)

			// If this is the worker's last task, close the connection.
			if assignee.closing && assignee.tasks == 0 {
				assignee.connection.Close()
			}
		}()

		out <- Outcome{Colour: c, Worker: assignee.address, Err: err}
	}()

	return out, assignee.address, nil
}

// forgetScene records that w no longer has the scene with key.
func (p *Pool) forgetScene(w *worker, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(w.scenes, key)
}

// remove removes a worker from a pool.
// This function assumes that the pool has already been locked, and that w is in the pool.
func (p *Pool) remove(w *worker) {
	wIndex := w.index

	// Remove the worker from the pool.
	delete(p.addresses, w.address)
	p.swap(uint(len(p.heap))-1, wIndex)
	p.heap = p.heap[:len(p.heap)-1]

	// If necessary, re-arrange the heap.
	if wIndex < uint(len(p.heap)) {
		p.bubbleDown(p.heap[wIndex])
		p.bubbleUp(p.heap[wIndex])
	}

	// Stop the heartbeats and disconnect if there are no remaining tasks.
	w.closing = true
	close(w.stopHeartbeats)
	if w.tasks == 0 {
		w.connection.Close()
	}
}

// heartbeat periodically pings a worker, and removes it once it stops answering or stops being ready.
// This function should be spun off as a goroutine.
func (p *Pool) heartbeat(w *worker) {
	for {
		select {
		case <-w.stopHeartbeats:
			return
		case <-time.After(p.cfg.HeartbeatFrequency):
		}

		// Set up a timeout for the heartbeat.
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.HeartbeatTimeout)
		status, err := w.connection.Ping(ctx)
		cancel()

		if err == nil && status == comms.StatusReady {
			continue
		}
		if err != nil {
			log.Printf("Failed to send heartbeat to %s: %v.\n", w.address, err)
		} else {
			log.Printf("Worker %s is %v, removing it.\n", w.address, status)
		}

		p.mu.Lock()
		if current, exists := p.addresses[w.address]; exists && current == w {
			p.remove(w)
		}
		p.mu.Unlock()
		return
	}
}

// Add adds a new worker to the pool.
// Adding a worker that is already in the pool does nothing.
func (p *Pool) Add(address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.addresses[address]; exists {
		return nil
	}

	// Connect to the worker.
	conn, err := p.cfg.Dial(address)
	if err != nil {
		return err
	}

	// Set up a new worker.
	w := &worker{
		address:        address,
		connection:     conn,
		stopHeartbeats: make(chan struct{}),
		scenes:         make(map[string]struct{}),
		index:          uint(len(p.heap)),
	}

	// Add the worker to the pool.
	p.addresses[address] = w
	p.heap = append(p.heap, w)
	p.bubbleUp(w)

	// Spin off a goroutine to send the worker heartbeats.
	go p.heartbeat(w)

	return nil
}

// Remove removes a worker from the pool.
func (p *Pool) Remove(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, exists := p.addresses[address]; exists {
		p.remove(w)
	}
}
