package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/finishline/internal/domain/model"
)

func job(id string) model.MatchJob {
	return model.MatchJob{JobID: id, SessionID: "s1", EventID: "city", Bib: "42", Selfie: []byte{1}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, job("job1")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.JobID != "job1" {
		t.Errorf("expected job1, got %v", got.JobID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
	if err := q.Enqueue(ctx, job("job1")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if err := q.Enqueue(ctx, job("job2")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}

	if err := q.Enqueue(ctx, job("job3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull when full, got %v", err)
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CanceledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, job("job1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	numProducers := 10
	numJobs := 100

	var consumed sync.WaitGroup
	consumed.Add(numProducers * numJobs)
	for i := 0; i < 4; i++ {
		go func() {
			for range q.Dequeue(ctx) {
				consumed.Done()
			}
		}()
	}

	var produced sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		produced.Add(1)
		go func(id int) {
			defer produced.Done()
			for j := 0; j < numJobs; j++ {
				for q.Enqueue(ctx, job(fmt.Sprintf("job%d_%d", id, j))) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	produced.Wait()

	done := make(chan struct{})
	go func() {
		consumed.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumers did not drain the queue")
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, job("job1")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if err := q.Enqueue(ctx, job("job2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after closing, got %v", err)
	}

	// Jobs queued before Close are still delivered, then the channel closes.
	jobs := q.Dequeue(ctx)
	timeout := time.After(100 * time.Millisecond)
	var drained []string
	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				if len(drained) != 1 || drained[0] != "job1" {
					t.Errorf("expected job1 to drain, got %v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, j.JobID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}

func TestInMemoryQueue_MaxPerSession(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10), WithMaxPerSession(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, id := range []string{"job1", "job2"} {
		if err := q.Enqueue(ctx, job(id)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}
	if err := q.Enqueue(ctx, job("job3")); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}
	if n := q.Pending("s1"); n != 2 {
		t.Errorf("expected 2 pending jobs, got %d", n)
	}

	other := job("job4")
	other.SessionID = "s2"
	if err := q.Enqueue(ctx, other); err != nil {
		t.Errorf("expected another session to enqueue, got %v", err)
	}

	// Taking a job off the queue frees a slot for its session.
	<-q.Dequeue(ctx)
	if err := q.Enqueue(ctx, job("job5")); err != nil {
		t.Errorf("expected enqueue after dequeue to succeed, got %v", err)
	}
}

func TestInMemoryQueue_FullReleasesSessionSlot(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1), WithMaxPerSession(2))
	ctx := context.Background()

	if err := q.Enqueue(ctx, job("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if err := q.Enqueue(ctx, job("job2")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if n := q.Pending("s1"); n != 1 {
		t.Errorf("expected the rejected job not to count, got %d pending", n)
	}
}

// waitLen polls until the queue holds n jobs.
func waitLen(t *testing.T, q *InMemoryQueue, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for q.Len(context.Background()) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected queue length %d, got %d", n, q.Len(context.Background()))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInMemoryQueue_CancelledHandOffRequeues(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2), WithMaxPerSession(1))
	if err := q.Enqueue(context.Background(), job("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	// The consumer takes the job but nobody reads it before cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	_ = q.Dequeue(ctx)
	waitLen(t, q, 0)
	cancel()
	waitLen(t, q, 1)

	if n := q.Pending("s1"); n != 1 {
		t.Errorf("expected the requeued job to hold its session slot, got %d", n)
	}

	next, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	select {
	case j := <-q.Dequeue(next):
		if j.JobID != "job1" {
			t.Errorf("expected job1 to be delivered, got %s", j.JobID)
		}
	case <-next.Done():
		t.Fatal("expected the requeued job to be delivered")
	}
}

func TestInMemoryQueue_DropCallback(t *testing.T) {
	dropped := make(chan Job, 1)
	q := NewInMemoryQueue(WithCapacity(2), WithMaxPerSession(1), WithOnDrop(func(j Job) { dropped <- j }))
	if err := q.Enqueue(context.Background(), job("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	_ = q.Dequeue(ctx)
	waitLen(t, q, 0)
	if err := q.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	cancel()

	select {
	case j := <-dropped:
		if j.JobID != "job1" {
			t.Errorf("expected job1 to be dropped, got %s", j.JobID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the drop callback for a job that cannot be requeued")
	}
	if n := q.Pending("s1"); n != 0 {
		t.Errorf("expected no pending jobs after a drop, got %d", n)
	}
}
