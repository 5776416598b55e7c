package server

import (
	"context"
	"net/http"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/go-playground/validator/v10"

	"github.com/go-tangra/go-tangra-remote-admin/internal/fanout"
	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
	"github.com/go-tangra/go-tangra-remote-admin/internal/session"
)

type CreateSessionRequest struct{}

type SessionRequest struct {
	ID string `json:"id" validate:"required"`
}

type SessionReply struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type StartSoftwareRequest struct {
	ID         string `json:"id" validate:"required"`
	Host       string `json:"host" validate:"required"`
	ShowHidden bool   `json:"show_hidden"`
}

type ListSoftwareRequest struct {
	ID     string `json:"id" validate:"required"`
	Filter string `json:"filter"`
}

type StartInfoRequest struct {
	ID    string `json:"id" validate:"required"`
	Hosts string `json:"hosts" validate:"required"`
}

type UninstallRequest struct {
	ID        string `json:"id" validate:"required"`
	Host      string `json:"host" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
}

type RebootRequest struct {
	ID   string `json:"id" validate:"required"`
	Host string `json:"host" validate:"required"`
}

// RoundReply describes a started round. An empty host set starts nothing
// and leaves RoundID empty.
type RoundReply struct {
	RoundID string   `json:"round_id,omitempty"`
	Hosts   []string `json:"hosts"`
}

type SoftwareReply struct {
	Entries []inventory.SoftwareEntry `json:"entries"`
	Running bool                      `json:"running"`
}

type InfoReply struct {
	Hosts   []inventory.HostInfo `json:"hosts"`
	Running bool                 `json:"running"`
}

type ActionReply struct {
	Host      string `json:"host"`
	ProductID string `json:"product_id,omitempty"`
}

type EmptyReply struct{}

// Handler serves the session API over the kratos HTTP transport.
type Handler struct {
	sessions *session.Manager
	validate *validator.Validate
	log      *log.Helper
}

// NewHandler creates a Handler backed by sessions.
func NewHandler(sessions *session.Manager, logger log.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		validate: validator.New(),
		log:      log.NewHelper(log.With(logger, "module", "server")),
	}
}

// Register mounts the HTTP routes on srv.
func (h *Handler) Register(srv *khttp.Server) {
	r := srv.Route("/")
	r.POST("/v1/sessions", handle(h, "/remoteadmin.v1.Sessions/Create", true, h.createSession))
	r.DELETE("/v1/sessions/{id}", handle(h, "/remoteadmin.v1.Sessions/Delete", false, h.deleteSession))
	r.POST("/v1/sessions/{id}/software", handle(h, "/remoteadmin.v1.Sessions/StartSoftware", true, h.startSoftware))
	r.GET("/v1/sessions/{id}/software", handle(h, "/remoteadmin.v1.Sessions/ListSoftware", false, h.listSoftware))
	r.POST("/v1/sessions/{id}/info", handle(h, "/remoteadmin.v1.Sessions/StartInfo", true, h.startInfo))
	r.GET("/v1/sessions/{id}/info", handle(h, "/remoteadmin.v1.Sessions/ListInfo", false, h.listInfo))
	r.POST("/v1/sessions/{id}/uninstall", handle(h, "/remoteadmin.v1.Sessions/Uninstall", true, h.uninstall))
	r.POST("/v1/sessions/{id}/reboot", handle(h, "/remoteadmin.v1.Sessions/Reboot", true, h.reboot))
}

// handle binds the body (when present), query and path variables into Req,
// then runs fn behind the server middleware chain.
func handle[Req, Reply any](h *Handler, operation string, body bool, fn func(context.Context, *Req) (*Reply, error)) khttp.HandlerFunc {
	return func(ctx khttp.Context) error {
		var in Req
		if body {
			if err := ctx.Bind(&in); err != nil {
				return kerrors.BadRequest("INVALID_BODY", err.Error())
			}
		}
		if err := ctx.BindQuery(&in); err != nil {
			return kerrors.BadRequest("INVALID_QUERY", err.Error())
		}
		if err := ctx.BindVars(&in); err != nil {
			return kerrors.BadRequest("INVALID_PATH", err.Error())
		}

		khttp.SetOperation(ctx, operation)
		m := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			r := req.(*Req)
			if err := h.validate.Struct(r); err != nil {
				return nil, err
			}
			return fn(ctx, r)
		})
		out, err := m(ctx, &in)
		if err != nil {
			return toHTTPError(err)
		}
		return ctx.Result(http.StatusOK, out.(*Reply))
	}
}

func (h *Handler) createSession(_ context.Context, _ *CreateSessionRequest) (*SessionReply, error) {
	s := h.sessions.Create()
	return &SessionReply{ID: s.ID, CreatedAt: s.CreatedAt}, nil
}

func (h *Handler) deleteSession(_ context.Context, req *SessionRequest) (*EmptyReply, error) {
	if err := h.sessions.Close(req.ID); err != nil {
		return nil, err
	}
	return &EmptyReply{}, nil
}

func (h *Handler) startSoftware(ctx context.Context, req *StartSoftwareRequest) (*RoundReply, error) {
	s, err := h.sessions.Get(req.ID)
	if err != nil {
		return nil, err
	}
	r, err := s.StartSoftware(ctx, req.Host, req.ShowHidden)
	if err != nil {
		return nil, err
	}
	return roundReply(r), nil
}

func (h *Handler) listSoftware(_ context.Context, req *ListSoftwareRequest) (*SoftwareReply, error) {
	s, err := h.sessions.Get(req.ID)
	if err != nil {
		return nil, err
	}
	return &SoftwareReply{Entries: s.Software(req.Filter), Running: s.Running(session.KindSoftware)}, nil
}

func (h *Handler) startInfo(ctx context.Context, req *StartInfoRequest) (*RoundReply, error) {
	s, err := h.sessions.Get(req.ID)
	if err != nil {
		return nil, err
	}
	r, err := s.StartInfo(ctx, req.Hosts)
	if err != nil {
		return nil, err
	}
	return roundReply(r), nil
}

func (h *Handler) listInfo(_ context.Context, req *SessionRequest) (*InfoReply, error) {
	s, err := h.sessions.Get(req.ID)
	if err != nil {
		return nil, err
	}
	return &InfoReply{Hosts: s.Info(), Running: s.Running(session.KindInfo)}, nil
}

func (h *Handler) uninstall(ctx context.Context, req *UninstallRequest) (*ActionReply, error) {
	s, err := h.sessions.Get(req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Uninstall(ctx, req.Host, req.ProductID); err != nil {
		h.log.Warnf("uninstall %s on %s: %v", req.ProductID, req.Host, err)
		return nil, err
	}
	h.log.Infof("uninstalled %s from %s", req.ProductID, req.Host)
	return &ActionReply{Host: req.Host, ProductID: req.ProductID}, nil
}

func (h *Handler) reboot(ctx context.Context, req *RebootRequest) (*ActionReply, error) {
	s, err := h.sessions.Get(req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Reboot(ctx, req.Host); err != nil {
		return nil, err
	}
	h.log.Infof("reboot requested for %s", req.Host)
	return &ActionReply{Host: req.Host}, nil
}

func roundReply(r *fanout.Round) *RoundReply {
	if r == nil {
		return &RoundReply{Hosts: []string{}}
	}
	return &RoundReply{RoundID: r.ID, Hosts: r.Hosts()}
}

