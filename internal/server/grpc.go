package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	remoteadminv1 "github.com/go-tangra/go-tangra-remote-admin/api/remoteadmin/v1"
	"github.com/go-tangra/go-tangra-remote-admin/internal/fanout"
	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
	"github.com/go-tangra/go-tangra-remote-admin/internal/session"
)

// RPCService implements the RemoteAdmin gRPC service. Every call runs in a
// session of its own that is closed when the call returns.
type RPCService struct {
	remoteadminv1.UnimplementedRemoteAdminServer
	sessions *session.Manager
	validate *validator.Validate
	log      *log.Helper
}

// NewRPCService creates an RPCService backed by sessions.
func NewRPCService(sessions *session.Manager, logger log.Logger) *RPCService {
	return &RPCService{
		sessions: sessions,
		validate: validator.New(),
		log:      log.NewHelper(log.With(logger, "module", "rpc")),
	}
}

func (s *RPCService) QuerySoftware(req *remoteadminv1.QuerySoftwareRequest, stream grpc.ServerStreamingServer[remoteadminv1.QuerySoftwareResponse]) error {
	if err := s.validate.Struct(req); err != nil {
		return toStatus(err)
	}
	sess := s.sessions.Create()
	defer s.sessions.Close(sess.ID)

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	if _, err := sess.StartSoftware(stream.Context(), req.Host, req.ShowHidden); err != nil {
		return toStatus(err)
	}

	sent := 0
	flush := func(diag []string, sum *fanout.Summary) error {
		batch := sess.SoftwareSince(sent)
		sent += len(batch)
		entries := inventory.FilterSoftware(batch, req.Filter)
		if len(entries) == 0 && len(diag) == 0 && sum == nil {
			return nil
		}
		return stream.Send(&remoteadminv1.QuerySoftwareResponse{Entries: entries, Diagnostics: diag, Summary: sum})
	}
	return pump(stream.Context(), events, flush)
}

func (s *RPCService) QueryInfo(req *remoteadminv1.QueryInfoRequest, stream grpc.ServerStreamingServer[remoteadminv1.QueryInfoResponse]) error {
	if err := s.validate.Struct(req); err != nil {
		return toStatus(err)
	}
	sess := s.sessions.Create()
	defer s.sessions.Close(sess.ID)

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	round, err := sess.StartInfo(stream.Context(), req.Hosts)
	if err != nil {
		return toStatus(err)
	}
	if round == nil {
		return stream.Send(&remoteadminv1.QueryInfoResponse{Summary: &fanout.Summary{}})
	}

	sent := 0
	flush := func(diag []string, sum *fanout.Summary) error {
		batch := sess.InfoSince(sent)
		sent += len(batch)
		if len(batch) == 0 && len(diag) == 0 && sum == nil {
			return nil
		}
		return stream.Send(&remoteadminv1.QueryInfoResponse{Hosts: batch, Diagnostics: diag, Summary: sum})
	}
	return pump(stream.Context(), events, flush)
}

// pump turns session events into stream messages until the round completes.
// Refresh events send the records added since the last message.
func pump(ctx context.Context, events <-chan session.Event, flush func([]string, *fanout.Summary) error) error {
	for {
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			var err error
			switch ev.Type {
			case session.EventRefresh:
				err = flush(nil, nil)
			case session.EventDiagnostic:
				err = flush([]string{ev.Message}, nil)
			case session.EventComplete:
				return flush(nil, ev.Summary)
			}
			if err != nil {
				return err
			}
		}
	}
}

func (s *RPCService) Uninstall(ctx context.Context, req *remoteadminv1.UninstallRequest) (*remoteadminv1.UninstallResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, toStatus(err)
	}
	sess := s.sessions.Create()
	defer s.sessions.Close(sess.ID)

	if err := sess.Uninstall(ctx, req.Host, req.ProductID); err != nil {
		s.log.Warnf("uninstall %s on %s: %v", req.ProductID, req.Host, err)
		return nil, toStatus(err)
	}
	s.log.Infof("uninstalled %s from %s", req.ProductID, req.Host)
	return &remoteadminv1.UninstallResponse{Host: req.Host, ProductID: req.ProductID}, nil
}

func (s *RPCService) Reboot(ctx context.Context, req *remoteadminv1.RebootRequest) (*remoteadminv1.RebootResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, toStatus(err)
	}
	sess := s.sessions.Create()
	defer s.sessions.Close(sess.ID)

	if err := sess.Reboot(ctx, req.Host); err != nil {
		return nil, toStatus(err)
	}
	s.log.Infof("reboot requested for %s", req.Host)
	return &remoteadminv1.RebootResponse{Host: req.Host}, nil
}
