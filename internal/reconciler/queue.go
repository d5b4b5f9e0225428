package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// requestKey identifies a resource in the queue.
type requestKey struct {
	Type      ResourceType
	Namespace string
	Name      string
}

func keyFor(req ReconcileRequest) requestKey {
	return requestKey{Type: req.Type, Namespace: req.Namespace, Name: req.Name}
}

func (k requestKey) String() string {
	if k.Namespace == "" {
		return fmt.Sprintf("%s/%s", k.Type, k.Name)
	}
	return fmt.Sprintf("%s/%s/%s", k.Type, k.Namespace, k.Name)
}

// workQueue deduplicates reconcile requests per resource. A resource
// that is requested while being processed is marked dirty and re-queued
// once the current pass finishes, so concurrent changes coalesce into a
// single follow-up pass instead of piling up.
type workQueue struct {
	mu sync.Mutex

	// queue holds the ordered pending requests.
	queue []ReconcileRequest

	// pending tracks which keys are in the queue.
	pending map[requestKey]ReconcileRequest

	// processing tracks keys currently being worked on.
	processing map[requestKey]struct{}

	// dirty tracks keys that changed while processing.
	dirty map[requestKey]ReconcileRequest

	cond     *sync.Cond
	shutdown bool
}

func newWorkQueue() *workQueue {
	q := &workQueue{
		pending:    make(map[requestKey]ReconcileRequest),
		processing: make(map[requestKey]struct{}),
		dirty:      make(map[requestKey]ReconcileRequest),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add enqueues a request. Requests for a key already pending replace the
// pending entry; requests for a key being processed are deferred until
// Done is called for that key.
func (q *workQueue) Add(req ReconcileRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdown {
		return
	}

	key := keyFor(req)

	if _, isProcessing := q.processing[key]; isProcessing {
		q.dirty[key] = req
		return
	}

	if _, isPending := q.pending[key]; isPending {
		q.pending[key] = req
		for i := range q.queue {
			if keyFor(q.queue[i]) == key {
				q.queue[i] = req
				break
			}
		}
		return
	}

	q.pending[key] = req
	q.queue = append(q.queue, req)
	q.cond.Signal()
}

// Get blocks until a request is available or the queue shuts down. The
// returned bool is false when the queue has shut down.
func (q *workQueue) Get() (ReconcileRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.queue) == 0 && !q.shutdown {
		q.cond.Wait()
	}

	if q.shutdown && len(q.queue) == 0 {
		return ReconcileRequest{}, false
	}

	req := q.queue[0]
	q.queue = q.queue[1:]
	key := keyFor(req)
	delete(q.pending, key)
	q.processing[key] = struct{}{}

	return req, true
}

// Done marks a request finished. If the key went dirty while processing,
// the deferred request is enqueued.
func (q *workQueue) Done(req ReconcileRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := keyFor(req)
	delete(q.processing, key)

	if deferred, isDirty := q.dirty[key]; isDirty {
		delete(q.dirty, key)
		if !q.shutdown {
			q.pending[key] = deferred
			q.queue = append(q.queue, deferred)
			q.cond.Signal()
		}
	}
}

// Len returns the pending request count.
func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// ShutDown stops the queue. Blocked Get calls return false once the
// queue drains.
func (q *workQueue) ShutDown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shutdown = true
	q.cond.Broadcast()
}

// delayedQueue schedules requests for a later time, one timer per key.
// Re-adding a key resets its timer.
type delayedQueue struct {
	mu     sync.Mutex
	target *workQueue
	timers map[requestKey]*time.Timer
	ctx    context.Context
}

func newDelayedQueue(ctx context.Context, target *workQueue) *delayedQueue {
	return &delayedQueue{
		target: target,
		timers: make(map[requestKey]*time.Timer),
		ctx:    ctx,
	}
}

// AddAfter enqueues req on the target queue after delay. A pending timer
// for the same key is replaced.
func (d *delayedQueue) AddAfter(req ReconcileRequest, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := keyFor(req)
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}

	d.timers[key] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()

		select {
		case <-d.ctx.Done():
		default:
			d.target.Add(req)
		}
	})
}

// Cancel drops any pending timer for the request's key.
func (d *delayedQueue) Cancel(req ReconcileRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := keyFor(req)
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// ShutDown stops all pending timers.
func (d *delayedQueue) ShutDown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
