package server

import (
	"net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/websocket"

	"github.com/go-tangra/go-tangra-remote-admin/internal/session"
)

const (
	watchPath      = "/v1/watch"
	watchWriteWait = 10 * time.Second
	watchPingEvery = 30 * time.Second
)

// Watcher streams session events to websocket clients as JSON text frames.
type Watcher struct {
	sessions  *session.Manager
	apiSecret string
	upgrader  websocket.Upgrader
	log       *log.Helper
}

// NewWatcher creates a Watcher. A non-empty apiSecret is required from
// every client, either as X-API-Key or as the api_key query parameter.
func NewWatcher(sessions *session.Manager, apiSecret string, logger log.Logger) *Watcher {
	return &Watcher{
		sessions:  sessions,
		apiSecret: apiSecret,
		upgrader:  websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		log:       log.NewHelper(log.With(logger, "module", "watch")),
	}
}

// ServeHTTP upgrades GET /v1/watch?session=<id>.
func (w *Watcher) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if err := checkAPIKey(requestAPIKey(r), w.apiSecret); err != nil {
		http.Error(rw, err.Error(), http.StatusUnauthorized)
		return
	}
	s, err := w.sessions.Get(r.URL.Query().Get("session"))
	if err != nil {
		http.Error(rw, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	// The read side only detects the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(watchPingEvery)
	defer ping.Stop()

	w.log.Debugf("watcher attached to session %s", s.ID)
	for {
		select {
		case <-gone:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(watchWriteWait)); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(watchWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				w.log.Debugf("watcher write: %v", err)
				return
			}
		}
	}
}
