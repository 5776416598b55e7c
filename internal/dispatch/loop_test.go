package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoop_RunsInPostOrder(t *testing.T) {
	l := New()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Close()
	l.Run(context.Background())

	if len(got) != 5 {
		t.Fatalf("ran %d commands, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestLoop_PostAfterCloseIsRejected(t *testing.T) {
	l := New()
	l.Close()
	if l.Post(func() {}) {
		t.Error("Post after Close returned true")
	}
	l.Close()
}

func TestLoop_ConcurrentPostersNeverDrop(t *testing.T) {
	const posters, each = 16, 200
	l := New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count := 0
	runDone := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(runDone)
	}()

	var wg sync.WaitGroup
	for p := 0; p < posters; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				l.Post(func() { count++ })
			}
		}()
	}
	wg.Wait()
	l.Close()
	<-runDone

	if count != posters*each {
		t.Errorf("count = %d, want %d", count, posters*each)
	}
}

func TestLoop_RunReturnsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
