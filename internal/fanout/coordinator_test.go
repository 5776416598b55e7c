package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
	"github.com/go-tangra/go-tangra-remote-admin/internal/collector"
	"github.com/go-tangra/go-tangra-remote-admin/internal/dispatch"
)

type rec struct{ host string }

var byHost = collection.ByKey(func(r rec) string { return r.host })

func startLoop(t *testing.T) *dispatch.Loop {
	t.Helper()
	loop := dispatch.New()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		loop.Close()
		cancel()
	})
	return loop
}

func newCoordinator(loop *dispatch.Loop, timeout time.Duration) *Coordinator {
	return NewCoordinator(loop, log.NewFilter(log.DefaultLogger, log.FilterLevel(log.LevelError)), timeout)
}

func waitSummary(t *testing.T, ch <-chan Summary) Summary {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("completion callback never fired")
		return Summary{}
	}
}

func TestRun_ExactlyOnceWithStaggeredFinish(t *testing.T) {
	loop := startLoop(t)
	co := newCoordinator(loop, 0)
	coll := collection.New[rec](loop)

	hostsIn := []string{"h1", "h2", "h3", "h4", "h5"}
	gates := make(map[string]chan struct{}, len(hostsIn))
	for _, h := range hostsIn {
		gates[h] = make(chan struct{})
	}

	c := collector.Func[rec](func(_ context.Context, host string, coll *collection.Collection[rec]) {
		<-gates[host]
		coll.AppendUnique(byHost, rec{host: host})
	})

	var calls atomic.Int32
	summaries := make(chan Summary, 4)
	r, err := Run(context.Background(), co, hostsIn, c, coll, func(s Summary) {
		calls.Add(1)
		summaries <- s
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Release in reverse order, checking the callback stays silent.
	for i := len(hostsIn) - 1; i > 0; i-- {
		close(gates[hostsIn[i]])
		deadline := time.Now().Add(2 * time.Second)
		for r.Outstanding() != i && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		if r.Outstanding() != i {
			t.Fatalf("Outstanding = %d, want %d", r.Outstanding(), i)
		}
		if r.State() != Running || calls.Load() != 0 {
			t.Fatalf("round completed early with %d units outstanding", i)
		}
	}
	close(gates[hostsIn[0]])

	s := waitSummary(t, summaries)
	if s.Hosts != 5 || s.Records != 5 || s.RoundID != r.ID {
		t.Errorf("Summary = %+v", s)
	}
	<-r.Done()
	if r.State() != Complete || r.Outstanding() != 0 {
		t.Errorf("State = %v, Outstanding = %d", r.State(), r.Outstanding())
	}

	time.Sleep(20 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("completion fired %d times, want 1", got)
	}
}

func TestRun_EmptySetIsNoop(t *testing.T) {
	loop := startLoop(t)
	co := newCoordinator(loop, 0)
	coll := collection.New[rec](loop)

	var started atomic.Int32
	c := collector.Func[rec](func(context.Context, string, *collection.Collection[rec]) { started.Add(1) })
	fired := false

	for _, in := range [][]string{nil, {}, {"", " ", ";,\n"}} {
		r, err := Run(context.Background(), co, in, c, coll, func(Summary) { fired = true })
		if r != nil || err != nil {
			t.Errorf("Run(%q) = %v, %v, want nil, nil", in, r, err)
		}
	}
	if started.Load() != 0 || fired {
		t.Errorf("started %d units, fired=%v", started.Load(), fired)
	}
	if err := coll.Claim(); err != nil {
		t.Errorf("empty round should not claim the collection: %v", err)
	}
}

func TestRun_DuplicateHostsAndUnreachable(t *testing.T) {
	loop := startLoop(t)
	co := newCoordinator(loop, 0)
	coll := collection.New[rec](loop)

	var units atomic.Int32
	c := collector.Func[rec](func(_ context.Context, host string, coll *collection.Collection[rec]) {
		units.Add(1)
		if host == "A" {
			return
		}
		coll.AppendUnique(byHost, rec{host: host})
		coll.RequestNotify()
	})

	summaries := make(chan Summary, 1)
	r, err := Run(context.Background(), co, []string{"A", "B", "B", "C"}, c, coll, func(s Summary) { summaries <- s })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := r.Hosts(); len(got) != 3 {
		t.Errorf("Hosts() = %v, want A, B, C", got)
	}

	s := waitSummary(t, summaries)
	if units.Load() != 3 {
		t.Errorf("ran %d units, want 3", units.Load())
	}
	if coll.Len() != 2 || s.Records != 2 || s.Hosts != 3 {
		t.Errorf("Len = %d, Summary = %+v", coll.Len(), s)
	}
}

func TestRun_PanicStillCounts(t *testing.T) {
	loop := startLoop(t)
	co := newCoordinator(loop, 0)
	coll := collection.New[rec](loop)

	c := collector.Func[rec](func(_ context.Context, host string, coll *collection.Collection[rec]) {
		if host == "bad" {
			panic("collector bug")
		}
		coll.Append(rec{host: host})
	})

	summaries := make(chan Summary, 1)
	if _, err := Run(context.Background(), co, []string{"good", "bad"}, c, coll, func(s Summary) { summaries <- s }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := waitSummary(t, summaries)
	if s.Panics != 1 || s.Records != 1 {
		t.Errorf("Summary = %+v", s)
	}
}

func TestRun_SecondRoundNeedsClear(t *testing.T) {
	loop := startLoop(t)
	co := newCoordinator(loop, 0)
	coll := collection.New[rec](loop)

	gate := make(chan struct{})
	c := collector.Func[rec](func(_ context.Context, host string, coll *collection.Collection[rec]) {
		<-gate
		coll.Append(rec{host: host})
	})

	summaries := make(chan Summary, 2)
	done := func(s Summary) { summaries <- s }
	r, err := Run(context.Background(), co, []string{"h1"}, c, coll, done)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := Run(context.Background(), co, []string{"h2"}, c, coll, done); !errors.Is(err, collection.ErrRoundActive) {
		t.Errorf("overlapping Run = %v, want ErrRoundActive", err)
	}
	close(gate)
	waitSummary(t, summaries)
	<-r.Done()

	if _, err := Run(context.Background(), co, []string{"h2"}, c, coll, done); !errors.Is(err, collection.ErrNotCleared) {
		t.Errorf("Run before Clear = %v, want ErrNotCleared", err)
	}
	if err := coll.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	r2, err := Run(context.Background(), co, []string{"h2"}, c, coll, done)
	if err != nil {
		t.Fatalf("Run after Clear: %v", err)
	}
	if r2.ID == r.ID {
		t.Error("rounds must not share an id")
	}
	waitSummary(t, summaries)
}

func TestRun_NextRoundAfterDoneKeepsSummary(t *testing.T) {
	loop := startLoop(t)
	co := newCoordinator(loop, 0)
	coll := collection.New[rec](loop)

	first := collector.Func[rec](func(_ context.Context, host string, coll *collection.Collection[rec]) {
		coll.Append(rec{host: host})
	})
	second := collector.Func[rec](func(_ context.Context, host string, coll *collection.Collection[rec]) {
		for i := 0; i < 5; i++ {
			coll.Append(rec{host: host})
		}
	})

	summaries := make(chan Summary, 2)
	done := func(s Summary) { summaries <- s }
	r1, err := Run(context.Background(), co, []string{"h1", "h2", "h3"}, first, coll, done)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	<-r1.Done()
	if err := coll.Clear(); err != nil {
		t.Fatalf("Clear right after Done: %v", err)
	}
	r2, err := Run(context.Background(), co, []string{"h4"}, second, coll, done)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if s := r1.Summary(); s.Records != 3 {
		t.Errorf("first round Records = %d, want 3", s.Records)
	}
	if got := waitSummary(t, summaries); got.RoundID != r1.ID || got.Records != 3 {
		t.Errorf("first completion = %+v, want round %s with 3 records", got, r1.ID)
	}
	if got := waitSummary(t, summaries); got.RoundID != r2.ID || got.Records != 5 {
		t.Errorf("second completion = %+v, want round %s with 5 records", got, r2.ID)
	}
}

func TestRun_UnitTimeout(t *testing.T) {
	loop := startLoop(t)
	co := newCoordinator(loop, 20*time.Millisecond)
	coll := collection.New[rec](loop)

	c := collector.Func[rec](func(ctx context.Context, host string, coll *collection.Collection[rec]) {
		if host == "hang" {
			<-ctx.Done()
			return
		}
		coll.Append(rec{host: host})
	})

	summaries := make(chan Summary, 1)
	if _, err := Run(context.Background(), co, []string{"hang", "fast"}, c, coll, func(s Summary) { summaries <- s }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := waitSummary(t, summaries)
	if s.Timeouts != 1 || s.Records != 1 {
		t.Errorf("Summary = %+v", s)
	}
}

func TestRun_CompletionRunsOnLoop(t *testing.T) {
	loop := dispatch.New()
	co := newCoordinator(loop, 0)
	coll := collection.New[rec](loop)

	refreshes := 0
	coll.Subscribe(collection.ObserverFunc(func() { refreshes++ }))

	c := collector.Func[rec](func(_ context.Context, host string, coll *collection.Collection[rec]) {
		coll.Append(rec{host: host})
	})

	var order []string
	r, err := Run(context.Background(), co, []string{"h1", "h2"}, c, coll, func(Summary) {
		order = append(order, "complete")
		loop.Close()
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	<-r.Done()

	loop.Run(context.Background())
	if len(order) != 1 {
		t.Errorf("completion ran %d times on the loop", len(order))
	}
	if refreshes == 0 {
		t.Error("observers were not refreshed before completion")
	}
}
