// Package session owns the result collections of one operator session and
// acts as their designated consumer: every observer notification and round
// completion runs on the session's dispatch loop goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
	"github.com/go-tangra/go-tangra-remote-admin/internal/collector"
	"github.com/go-tangra/go-tangra-remote-admin/internal/dispatch"
	"github.com/go-tangra/go-tangra-remote-admin/internal/fanout"
	"github.com/go-tangra/go-tangra-remote-admin/internal/hosts"
	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
	"github.com/go-tangra/go-tangra-remote-admin/internal/remote"
)

// ErrNoHost is returned when a software round is started without a host.
var ErrNoHost = errors.New("a host name is required")

const subscriberBufferSize = 64

// Options are shared by every session of a Manager.
type Options struct {
	Dialer      remote.Dialer
	Prober      remote.Prober
	UnitTimeout time.Duration
	Logger      log.Logger
}

// Session holds one software collection and one host info collection.
type Session struct {
	ID        string
	CreatedAt time.Time

	opts   Options
	log    *log.Helper
	loop   *dispatch.Loop
	co     *fanout.Coordinator
	ctx    context.Context
	cancel context.CancelFunc

	software *collection.Collection[inventory.SoftwareEntry]
	info     *collection.Collection[inventory.HostInfo]

	mu           sync.Mutex
	subs         map[int]chan Event
	nextSub      int
	closed       bool
	softwareHost string
	showHidden   bool

	lastUsed atomic.Int64
}

func newSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger
	}
	ctx, cancel := context.WithCancel(context.Background())
	loop := dispatch.New()

	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		opts:      opts,
		log:       log.NewHelper(log.With(opts.Logger, "module", "session")),
		loop:      loop,
		co:        fanout.NewCoordinator(loop, opts.Logger, opts.UnitTimeout),
		ctx:       ctx,
		cancel:    cancel,
		software:  collection.New[inventory.SoftwareEntry](loop),
		info:      collection.New[inventory.HostInfo](loop),
		subs:      make(map[int]chan Event),
	}
	s.touch()

	s.software.Subscribe(collection.ObserverFunc(func() {
		s.publish(Event{Type: EventRefresh, Kind: KindSoftware, Records: s.software.Len()})
	}))
	s.info.Subscribe(collection.ObserverFunc(func() {
		s.publish(Event{Type: EventRefresh, Kind: KindInfo, Records: s.info.Len()})
	}))

	go loop.Run(ctx)
	return s
}

// StartSoftware clears the software collection and queries host. An
// unreachable host is returned as remote.ErrUnreachable and no round starts.
func (s *Session) StartSoftware(ctx context.Context, host string, showHidden bool) (*fanout.Round, error) {
	s.touch()
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, ErrNoHost
	}
	if err := s.software.Clear(); err != nil {
		return nil, err
	}

	c := &collector.Software{
		Dialer:     s.opts.Dialer,
		Prober:     s.opts.Prober,
		Reporter:   s.reporter(KindSoftware),
		ShowHidden: showHidden,
	}
	if err := c.Preflight(ctx, host); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.softwareHost, s.showHidden = host, showHidden
	s.mu.Unlock()

	return fanout.Run(s.ctx, s.co, []string{host}, c, s.software, s.completer(KindSoftware))
}

// StartInfo resolves text as a host list or host file, clears the info
// collection and queries every host. An empty host set starts nothing.
func (s *Session) StartInfo(_ context.Context, text string) (*fanout.Round, error) {
	s.touch()
	list, err := hosts.Resolve(text)
	if err != nil {
		return nil, err
	}
	if err := s.info.Clear(); err != nil {
		return nil, err
	}

	c := &collector.HostInfo{
		Dialer:   s.opts.Dialer,
		Prober:   s.opts.Prober,
		Reporter: s.reporter(KindInfo),
	}
	return fanout.Run(s.ctx, s.co, list, c, s.info, s.completer(KindInfo))
}

// Software returns the current software entries matching filter.
func (s *Session) Software(filter string) []inventory.SoftwareEntry {
	s.touch()
	return inventory.FilterSoftware(s.software.Snapshot(), filter)
}

// SoftwareSince returns the software entries after the first n.
func (s *Session) SoftwareSince(n int) []inventory.SoftwareEntry {
	return s.software.Since(n)
}

// Info returns the current host info records.
func (s *Session) Info() []inventory.HostInfo {
	s.touch()
	return s.info.Snapshot()
}

// InfoSince returns the host info records after the first n.
func (s *Session) InfoSince(n int) []inventory.HostInfo {
	return s.info.Since(n)
}

// Running reports whether a round of kind k is in flight.
func (s *Session) Running(k Kind) bool {
	if k == KindSoftware {
		return s.software.Running()
	}
	return s.info.Running()
}

// Uninstall removes productID from host. When host is the one the software
// collection was built from, the software round is re-run afterwards.
func (s *Session) Uninstall(ctx context.Context, host, productID string) error {
	s.touch()
	r, err := s.opts.Dialer.Dial(ctx, host)
	if err != nil {
		return remote.Classify(host, err)
	}
	defer r.Close()

	uerr := collector.Uninstall(ctx, r, host, productID)
	if errors.Is(uerr, collector.ErrInvalidProductID) {
		return uerr
	}

	s.mu.Lock()
	last, hidden := s.softwareHost, s.showHidden
	s.mu.Unlock()
	if strings.EqualFold(last, host) {
		if _, err := s.StartSoftware(ctx, host, hidden); err != nil {
			s.log.Warnf("refresh software on %s after uninstall: %v", host, err)
		}
	}
	return uerr
}

// Reboot asks host to restart.
func (s *Session) Reboot(ctx context.Context, host string) error {
	s.touch()
	r, err := s.opts.Dialer.Dial(ctx, host)
	if err != nil {
		return remote.Classify(host, err)
	}
	defer r.Close()
	return collector.Reboot(ctx, r, host)
}

// Subscribe returns a channel of events and a function that detaches it.
// Slow subscribers lose refresh events rather than stall the dispatch loop.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBufferSize)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
		})
	}
}

// Close stops the session's rounds and its dispatch loop and detaches every
// subscriber.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.loop.Close()
}

// IdleFor returns how long the session has gone unused.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// publish runs on the dispatch loop, the only sender on subscriber
// channels. A full channel drops refresh events; other events evict the
// oldest queued event instead.
func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		if ev.Type == EventRefresh {
			continue
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) completer(k Kind) func(fanout.Summary) {
	return func(sum fanout.Summary) {
		s.publish(Event{Type: EventComplete, Kind: k, Records: sum.Records, Message: CompleteMessage(k), Summary: &sum})
	}
}

// reporter routes per-host faults from worker goroutines onto the loop.
func (s *Session) reporter(k Kind) collector.Reporter {
	return collector.ReporterFunc(func(host string, err error) {
		s.log.Warnf("%s query on %s: %v", k, host, err)
		msg := remote.UserMessage(err)
		s.loop.Post(func() {
			s.publish(Event{Type: EventDiagnostic, Kind: k, Host: host, Message: fmt.Sprintf("%s: %s", host, msg)})
		})
	})
}
