package render

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEnvironmentRunsTasksInFIFOOrder(t *testing.T) {
	e := NewEnvironment()
	e.Start()
	defer e.Stop()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		i := i
		t := e.AddTask("", func() {
			order = append(order, i)
			if i == 2 {
				close(done)
			}
		}, false)
		_ = t
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("tasks ran out of order: %v", order)
	}
}

func TestEnvironmentTaskWaitBlocksUntilDone(t *testing.T) {
	e := NewEnvironment()
	e.Start()
	defer e.Stop()

	var ran atomic.Bool
	task := e.AddTask("", func() {
		time.Sleep(20 * time.Millisecond)
		ran.Store(true)
	}, false)
	task.Wait()
	if !ran.Load() {
		t.Fatal("Wait returned before task ran")
	}
}

func TestEnvironmentOverwriteCoalescesSameTag(t *testing.T) {
	e := NewEnvironment()
	// Don't start the consumer yet, so both AddTask calls queue up.
	first := e.AddTask("frame", func() {}, false)
	second := e.AddTask("frame", func() {}, true)

	e.mu.Lock()
	queued := len(e.queue)
	e.mu.Unlock()
	if queued != 1 {
		t.Fatalf("expected overwrite to leave 1 queued task, got %d", queued)
	}
	_ = first
	e.Start()
	second.Wait()
	e.Stop()
}

func TestEnvironmentIdleTaskFiresOnTimeout(t *testing.T) {
	e := NewEnvironment()
	e.idleTimeout = 20 * time.Millisecond
	var fired atomic.Bool
	e.SetIdleTask(func() { fired.Store(true) })
	e.Start()
	time.Sleep(100 * time.Millisecond)
	e.Stop()
	if !fired.Load() {
		t.Fatal("expected idle task to fire after timeout")
	}
}

func TestEnvironmentStopDrainsQueueBeforeExit(t *testing.T) {
	e := NewEnvironment()
	var count atomic.Int32
	for i := 0; i < 5; i++ {
		e.AddTask("", func() { count.Add(1) }, false)
	}
	e.Start()
	e.Stop()
	if count.Load() != 5 {
		t.Fatalf("expected all 5 queued tasks to run before Stop returns, got %d", count.Load())
	}
}
