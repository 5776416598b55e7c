//go:build windows

package winsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"
)

const (
	eventInfo    = 1
	eventWarning = 2
	eventError   = 3
)

// eventLogger is a kratos log.Logger backed by the Windows Event Log.
// Entries carry their own timestamps, so no ts key is added.
type eventLogger struct {
	elog *eventlog.Log
}

func (l *eventLogger) Log(level log.Level, keyvals ...any) error {
	var b strings.Builder
	for i := 0; i+1 < len(keyvals); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v=%v", keyvals[i], keyvals[i+1])
	}
	msg := b.String()
	switch {
	case level >= log.LevelError:
		return l.elog.Error(eventError, msg)
	case level == log.LevelWarn:
		return l.elog.Warning(eventWarning, msg)
	}
	return l.elog.Info(eventInfo, msg)
}

// EventLogger opens the named event log source.
func EventLogger(name string) (log.Logger, error) {
	elog, err := eventlog.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", name, err)
	}
	return &eventLogger{elog: elog}, nil
}

// IsWindowsService reports whether the process is running as a
// Windows service.
func IsWindowsService() bool {
	ok, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return ok
}

// handler implements svc.Handler for a long-running function.
type handler struct {
	svc *Service
	run func(ctx context.Context) error
}

func (h *handler) Execute(_ []string, req <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown
	status <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.run(ctx)
	}()

	status <- svc.Status{State: svc.Running, Accepts: accepted}

	for {
		select {
		case err := <-errCh:
			status <- svc.Status{State: svc.StopPending}
			if err != nil {
				h.svc.logger().Errorf("service %s stopped with error: %v", h.svc.Name, err)
				return false, 1
			}
			return false, 0

		case cr := <-req:
			switch cr.Cmd {
			case svc.Interrogate:
				status <- cr.CurrentStatus
			case svc.Stop, svc.Shutdown:
				status <- svc.Status{State: svc.StopPending}
				cancel()
				select {
				case <-errCh:
				case <-time.After(30 * time.Second):
					h.svc.logger().Warnf("service %s: timed out waiting for graceful shutdown", h.svc.Name)
				}
				return false, 0
			}
		}
	}
}

// Run blocks until the SCM stops the service. run receives a context that
// is cancelled on stop or shutdown.
func (s *Service) Run(run func(ctx context.Context) error) error {
	return svc.Run(s.Name, &handler{svc: s, run: run})
}

// Install registers the service with the Service Control Manager and
// creates its event log source.
func (s *Service) Install(exePath string, args []string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to SCM: %w", err)
	}
	defer m.Disconnect()

	if existing, err := m.OpenService(s.Name); err == nil {
		existing.Close()
		return fmt.Errorf("service %s already exists", s.Name)
	}

	cfg := mgr.Config{
		DisplayName: s.DisplayName,
		Description: s.Description,
		StartType:   mgr.StartAutomatic,
	}
	service, err := m.CreateService(s.Name, exePath, cfg, args...)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	defer service.Close()

	// Restart on the first two failures, reset after a day.
	_ = service.SetRecoveryActions([]mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: 10 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 30 * time.Second},
		{Type: mgr.NoAction},
	}, 86400)

	if err := eventlog.InstallAsEventCreate(s.Name, eventlog.Error|eventlog.Warning|eventlog.Info); err != nil {
		s.logger().Warnf("could not install event log source: %v", err)
	}
	return nil
}

// Uninstall stops and removes the service and its event log source.
func (s *Service) Uninstall() error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to SCM: %w", err)
	}
	defer m.Disconnect()

	service, err := m.OpenService(s.Name)
	if err != nil {
		return fmt.Errorf("open service %s: %w", s.Name, err)
	}
	defer service.Close()

	st, err := service.Query()
	if err == nil && st.State != svc.Stopped {
		_, _ = service.Control(svc.Stop)
		for range 10 {
			time.Sleep(500 * time.Millisecond)
			st, err = service.Query()
			if err != nil || st.State == svc.Stopped {
				break
			}
		}
	}

	if err := service.Delete(); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	_ = eventlog.Remove(s.Name)
	return nil
}
