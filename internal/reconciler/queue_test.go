package reconciler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestWorkQueue_AddAndGet(t *testing.T) {
	q := newWorkQueue()

	req := ReconcileRequest{
		Type:    ResourceTypePlatform,
		Name:    "demo",
		Attempt: 1,
	}
	q.Add(req)

	if q.Len() != 1 {
		t.Errorf("expected queue length 1, got %d", q.Len())
	}

	got, ok := q.Get()
	if !ok {
		t.Fatal("expected an item from the queue")
	}
	if got.Name != req.Name || got.Type != req.Type {
		t.Errorf("got unexpected request: %+v", got)
	}
	q.Done(got)
}

func TestWorkQueue_Deduplication(t *testing.T) {
	q := newWorkQueue()

	q.Add(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo", Attempt: 1})
	q.Add(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo", Attempt: 2})

	if q.Len() != 1 {
		t.Errorf("expected queue length 1 after dedup, got %d", q.Len())
	}

	got, ok := q.Get()
	if !ok {
		t.Fatal("expected an item from the queue")
	}
	if got.Attempt != 2 {
		t.Errorf("expected the newer request (attempt 2), got attempt %d", got.Attempt)
	}
	q.Done(got)
}

func TestWorkQueue_DistinctKeysNotDeduplicated(t *testing.T) {
	q := newWorkQueue()

	q.Add(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo", Namespace: "a"})
	q.Add(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo", Namespace: "b"})
	q.Add(ReconcileRequest{Type: ResourceTypePlatformBackup, Name: "demo", Namespace: "a"})

	if q.Len() != 3 {
		t.Errorf("expected 3 distinct requests, got %d", q.Len())
	}
}

func TestWorkQueue_DirtyRequeue(t *testing.T) {
	q := newWorkQueue()

	q.Add(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo", Attempt: 1})

	got, ok := q.Get()
	if !ok {
		t.Fatal("expected an item from the queue")
	}

	// Re-added while processing: deferred, not queued.
	q.Add(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo", Attempt: 2})
	if q.Len() != 0 {
		t.Errorf("expected empty queue while processing, got %d", q.Len())
	}

	q.Done(got)
	if q.Len() != 1 {
		t.Errorf("expected deferred request after Done, got %d", q.Len())
	}

	got2, ok := q.Get()
	if !ok {
		t.Fatal("expected the deferred item")
	}
	if got2.Attempt != 2 {
		t.Errorf("expected attempt 2, got %d", got2.Attempt)
	}
	q.Done(got2)
}

func TestWorkQueue_Shutdown(t *testing.T) {
	q := newWorkQueue()

	done := make(chan bool)
	go func() {
		_, ok := q.Get()
		done <- ok
	}()

	time.Sleep(50 * time.Millisecond)
	q.ShutDown()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected Get to return false after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock after shutdown")
	}
}

func TestWorkQueue_ConcurrentProducers(t *testing.T) {
	q := newWorkQueue()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				q.Add(ReconcileRequest{
					Type: ResourceTypePlatform,
					Name: fmt.Sprintf("platform-%d-%d", id, j),
				})
			}
		}(i)
	}
	wg.Wait()

	if q.Len() != 50 {
		t.Errorf("expected 50 queued requests, got %d", q.Len())
	}

	consumed := 0
	for q.Len() > 0 {
		req, ok := q.Get()
		if !ok {
			break
		}
		consumed++
		q.Done(req)
	}
	if consumed != 50 {
		t.Errorf("expected to consume 50 requests, got %d", consumed)
	}
}

func TestDelayedQueue_AddAfter(t *testing.T) {
	target := newWorkQueue()
	d := newDelayedQueue(context.Background(), target)

	start := time.Now()
	delay := 100 * time.Millisecond
	d.AddAfter(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo"}, delay)

	got, ok := target.Get()
	elapsed := time.Since(start)
	if !ok {
		t.Fatal("expected delayed item")
	}
	if got.Name != "demo" {
		t.Errorf("got unexpected request: %+v", got)
	}
	if elapsed < delay {
		t.Errorf("item arrived too early: %v < %v", elapsed, delay)
	}
	target.Done(got)
	d.ShutDown()
}

func TestDelayedQueue_ReplacesTimer(t *testing.T) {
	target := newWorkQueue()
	d := newDelayedQueue(context.Background(), target)

	d.AddAfter(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo", Attempt: 1}, time.Hour)
	d.AddAfter(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo", Attempt: 2}, 50*time.Millisecond)

	got, ok := target.Get()
	if !ok {
		t.Fatal("expected the rescheduled item")
	}
	if got.Attempt != 2 {
		t.Errorf("expected the replacement request, got attempt %d", got.Attempt)
	}
	target.Done(got)
	d.ShutDown()
}

func TestDelayedQueue_ShutdownCancelsTimers(t *testing.T) {
	target := newWorkQueue()
	d := newDelayedQueue(context.Background(), target)

	d.AddAfter(ReconcileRequest{Type: ResourceTypePlatform, Name: "demo"}, time.Hour)
	d.ShutDown()

	if target.Len() != 0 {
		t.Errorf("expected no items after shutdown, got %d", target.Len())
	}
}
