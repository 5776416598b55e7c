// Package inventory defines the records produced by a query round and the
// rules that decide which candidates make it into a collection.
package inventory

import (
	"time"

	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
)

// Host status values.
const (
	StatusOK              = "OK"
	StatusConnectionError = "Connection Error"
)

// SoftwareEntry is one installed product discovered under a host's
// uninstall registry roots. Optional fields are nil when the registry value
// is missing or unparseable.
type SoftwareEntry struct {
	ProductID       string     `json:"product_id" yaml:"product_id"`
	Name            string     `json:"name" yaml:"name"`
	Publisher       string     `json:"publisher" yaml:"publisher"`
	Version         string     `json:"version" yaml:"version"`
	InstallDate     *time.Time `json:"install_date,omitempty" yaml:"install_date,omitempty"`
	SizeMB          *float64   `json:"size_mb,omitempty" yaml:"size_mb,omitempty"`
	CanRemove       bool       `json:"can_remove" yaml:"can_remove"`
	SystemComponent bool       `json:"system_component" yaml:"system_component"`
	HelpLink        string     `json:"help_link,omitempty" yaml:"help_link,omitempty"`
	URLInfoAbout    string     `json:"url_info_about,omitempty" yaml:"url_info_about,omitempty"`
	Comment         string     `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Valid reports whether the entry has both a display name and a product id.
func (s SoftwareEntry) Valid() bool {
	return s.Name != "" && s.ProductID != ""
}

// Hidden reports whether the entry is a system component that stays out of
// the collection unless hidden entries were requested.
func (s SoftwareEntry) Hidden(showHidden bool) bool {
	return !showHidden && s.SystemComponent
}

// Admit applies the validity filter and the hidden filter.
func (s SoftwareEntry) Admit(showHidden bool) bool {
	return s.Valid() && !s.Hidden(showHidden)
}

// HostInfo describes one host for one query round. A host that could not
// be reached or queried still gets a HostInfo whose Status explains why.
type HostInfo struct {
	Host          string         `json:"host" yaml:"host"`
	Status        string         `json:"status" yaml:"status"`
	QueriedAt     time.Time      `json:"queried_at" yaml:"queried_at"`
	LastBootTime  *time.Time     `json:"last_boot_time,omitempty" yaml:"last_boot_time,omitempty"`
	Uptime        *time.Duration `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	OSVersion     string         `json:"os_version,omitempty" yaml:"os_version,omitempty"`
	Architecture  string         `json:"architecture,omitempty" yaml:"architecture,omitempty"`
	Manufacturer  string         `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	HwReleaseDate *time.Time     `json:"hw_release_date,omitempty" yaml:"hw_release_date,omitempty"`
	SerialNumber  string         `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	BIOSVersion   string         `json:"bios_version,omitempty" yaml:"bios_version,omitempty"`
}

// ConnectionError builds the sentinel record for an unreachable host.
func ConnectionError(host string, now time.Time) HostInfo {
	return HostInfo{Host: host, Status: StatusConnectionError, QueriedAt: now}
}

// SetBootTime records the last boot time and derives uptime from QueriedAt.
func (h *HostInfo) SetBootTime(boot time.Time) {
	h.LastBootTime = &boot
	if h.QueriedAt.IsZero() || h.QueriedAt.Before(boot) {
		return
	}
	up := h.QueriedAt.Sub(boot).Truncate(time.Second)
	h.Uptime = &up
}

// SoftwareByProductID deduplicates software entries by product id.
var SoftwareByProductID = collection.ByKey(func(s SoftwareEntry) string { return s.ProductID })

// HostInfoByHost deduplicates host records by host identifier.
var HostInfoByHost = collection.ByKey(func(h HostInfo) string { return h.Host })
