// Package fanout runs a collector against every host of a round, one
// goroutine per host, and signals completion exactly once.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
	"github.com/go-tangra/go-tangra-remote-admin/internal/collector"
	"github.com/go-tangra/go-tangra-remote-admin/internal/dispatch"
	"github.com/go-tangra/go-tangra-remote-admin/internal/hosts"
)

// Coordinator starts rounds. Completion callbacks run on its dispatch loop.
type Coordinator struct {
	loop        *dispatch.Loop
	log         *log.Helper
	unitTimeout time.Duration
}

// NewCoordinator creates a Coordinator. A zero unitTimeout lets every unit
// run until its collector returns.
func NewCoordinator(loop *dispatch.Loop, logger log.Logger, unitTimeout time.Duration) *Coordinator {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Coordinator{
		loop:        loop,
		log:         log.NewHelper(log.With(logger, "module", "fanout")),
		unitTimeout: unitTimeout,
	}
}

// Run normalizes hostList and starts one unit per host against coll.
// onComplete is posted to the dispatch loop once, after every unit
// finished. An empty host set starts nothing and returns a nil Round.
func Run[T any](
	ctx context.Context,
	co *Coordinator,
	hostList []string,
	c collector.Collector[T],
	coll *collection.Collection[T],
	onComplete func(Summary),
) (*Round, error) {
	set := hosts.Set(hostList)
	if len(set) == 0 {
		return nil, nil
	}
	if err := coll.Claim(); err != nil {
		return nil, fmt.Errorf("start round: %w", err)
	}

	r := newRound(set)
	co.log.Infof("round %s started: %d hosts", r.ID, len(set))

	for _, host := range set {
		go runUnit(ctx, co, r, host, c, coll, onComplete)
	}
	return r, nil
}

func runUnit[T any](
	ctx context.Context,
	co *Coordinator,
	r *Round,
	host string,
	c collector.Collector[T],
	coll *collection.Collection[T],
	onComplete func(Summary),
) {
	start := time.Now()
	defer func() {
		co.log.Debugf("round %s: %s finished in %s", r.ID, host, time.Since(start).Truncate(time.Millisecond))
		if r.finishUnit() {
			finish(co, r, coll, onComplete)
		}
	}()

	unitCtx := ctx
	if co.unitTimeout > 0 {
		var cancel context.CancelFunc
		unitCtx, cancel = context.WithTimeout(ctx, co.unitTimeout)
		defer cancel()
	}

	collect(co, r, host, func() { c.Collect(unitCtx, host, coll) })

	if co.unitTimeout > 0 && errors.Is(unitCtx.Err(), context.DeadlineExceeded) {
		r.timeouts.Add(1)
		co.log.Warnf("round %s: %s exceeded unit timeout %s", r.ID, host, co.unitTimeout)
	}
}

// collect runs fn and turns a panic into a counted, logged unit failure.
func collect(co *Coordinator, r *Round, host string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.panics.Add(1)
			co.log.Errorw("msg", "collector panic", "round", r.ID, "host", host, "panic", p)
		}
	}()
	fn()
}

func finish[T any](co *Coordinator, r *Round, coll *collection.Collection[T], onComplete func(Summary)) {
	// Count before Release; Done closes only after the completion is posted.
	s := r.complete(coll.Len())
	coll.Release()
	co.log.Infof("round %s complete: %d hosts, %d records in %s", r.ID, s.Hosts, s.Records, s.Duration.Truncate(time.Millisecond))

	coll.RequestNotify()
	defer r.markDone()
	if onComplete == nil {
		return
	}
	if co.loop == nil {
		onComplete(s)
		return
	}
	if !co.loop.Post(func() { onComplete(s) }) {
		co.log.Warnf("round %s: dispatch loop closed, completion dropped", r.ID)
	}
}
