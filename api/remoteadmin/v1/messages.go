// Package remoteadminv1 defines the remoteadmin.v1.RemoteAdmin gRPC service.
// Messages travel with the JSON codec registered by internal/codec.
package remoteadminv1

import (
	"github.com/go-tangra/go-tangra-remote-admin/internal/fanout"
	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
)

type QuerySoftwareRequest struct {
	Host       string `json:"host" validate:"required"`
	ShowHidden bool   `json:"show_hidden"`
	Filter     string `json:"filter"`
}

// QuerySoftwareResponse is one message of the QuerySoftware stream. Entries
// holds the records appended since the previous message; the last message
// carries Summary.
type QuerySoftwareResponse struct {
	Entries     []inventory.SoftwareEntry `json:"entries,omitempty"`
	Diagnostics []string                  `json:"diagnostics,omitempty"`
	Summary     *fanout.Summary           `json:"summary,omitempty"`
}

type QueryInfoRequest struct {
	// Hosts is a delimited host list or a path to a host list file on the server.
	Hosts string `json:"hosts" validate:"required"`
}

// QueryInfoResponse is one message of the QueryInfo stream.
type QueryInfoResponse struct {
	Hosts       []inventory.HostInfo `json:"hosts,omitempty"`
	Diagnostics []string             `json:"diagnostics,omitempty"`
	Summary     *fanout.Summary      `json:"summary,omitempty"`
}

type UninstallRequest struct {
	Host      string `json:"host" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
}

type UninstallResponse struct {
	Host      string `json:"host"`
	ProductID string `json:"product_id"`
}

type RebootRequest struct {
	Host string `json:"host" validate:"required"`
}

type RebootResponse struct {
	Host string `json:"host"`
}
