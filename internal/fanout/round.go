package fanout

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Round.
type State int32

const (
	Idle State = iota
	Running
	Complete
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

// Summary describes a finished round.
type Summary struct {
	RoundID  string        `json:"round_id" yaml:"round_id"`
	Hosts    int           `json:"hosts" yaml:"hosts"`
	Records  int           `json:"records" yaml:"records"`
	Panics   int           `json:"panics" yaml:"panics"`
	Timeouts int           `json:"timeouts" yaml:"timeouts"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Round is the state of one fan-out. It is created per Run call and never
// reused.
type Round struct {
	ID string

	hosts       []string
	started     time.Time
	outstanding atomic.Int64
	state       atomic.Int32
	panics      atomic.Int64
	timeouts    atomic.Int64

	once    sync.Once
	done    chan struct{}
	summary Summary
}

func newRound(hosts []string) *Round {
	r := &Round{
		ID:      uuid.NewString(),
		hosts:   hosts,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	r.outstanding.Store(int64(len(hosts)))
	r.state.Store(int32(Running))
	return r
}

// Hosts returns the normalized host set the round fans out to.
func (r *Round) Hosts() []string {
	out := make([]string, len(r.hosts))
	copy(out, r.hosts)
	return out
}

// Outstanding returns the number of units that have not finished yet.
func (r *Round) Outstanding() int {
	return int(r.outstanding.Load())
}

// State returns the round's current state.
func (r *Round) State() State {
	return State(r.state.Load())
}

// Done is closed after the last unit finished and the summary is final.
func (r *Round) Done() <-chan struct{} {
	return r.done
}

// Summary returns the final summary. It is only meaningful after Done.
func (r *Round) Summary() Summary {
	<-r.done
	return r.summary
}

// finishUnit decrements the outstanding count and reports whether this call
// observed it reach zero.
func (r *Round) finishUnit() bool {
	return r.outstanding.Add(-1) == 0
}

func (r *Round) complete(records int) Summary {
	r.summary = Summary{
		RoundID:  r.ID,
		Hosts:    len(r.hosts),
		Records:  records,
		Panics:   int(r.panics.Load()),
		Timeouts: int(r.timeouts.Load()),
		Duration: time.Since(r.started),
	}
	return r.summary
}

// markDone publishes the summary to Done waiters.
func (r *Round) markDone() {
	r.once.Do(func() {
		r.state.Store(int32(Complete))
		close(r.done)
	})
}
