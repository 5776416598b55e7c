package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
	"github.com/go-tangra/go-tangra-remote-admin/internal/remote"
)

// HostInfo runs one CIM query per host (Win32_OperatingSystem,
// Win32_ComputerSystem, Win32_BIOS) and appends exactly one record. An
// unreachable host yields the Connection Error sentinel and a failed query
// yields a record whose status is the fault message.
type HostInfo struct {
	Dialer   remote.Dialer
	Prober   remote.Prober
	Reporter Reporter
	Now      func() time.Time
}

func (c *HostInfo) Collect(ctx context.Context, host string, coll *collection.Collection[inventory.HostInfo]) {
	rec := c.query(ctx, host)
	if coll.AppendUnique(inventory.HostInfoByHost, rec) {
		coll.RequestNotify()
	}
}

func (c *HostInfo) query(ctx context.Context, host string) inventory.HostInfo {
	if c.Prober != nil && !c.Prober.Probe(ctx, host) {
		return inventory.ConnectionError(host, c.now())
	}

	r, err := c.Dialer.Dial(ctx, host)
	if err != nil {
		return c.failed(host, err)
	}
	defer r.Close()

	out, err := remote.Output(ctx, r, hostInfoScript)
	if err != nil {
		return c.failed(host, err)
	}

	var q hostQuery
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		return c.failed(host, fmt.Errorf("decode host query: %w", err))
	}
	return q.toHostInfo(host, c.now())
}

func (c *HostInfo) failed(host string, err error) inventory.HostInfo {
	err = remote.Classify(host, err)
	report(c.Reporter, host, err)
	return inventory.HostInfo{Host: host, Status: remote.UserMessage(err), QueriedAt: c.now()}
}

func (c *HostInfo) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// toHostInfo takes QueriedAt from the host's clock when it reported one.
func (q hostQuery) toHostInfo(host string, now time.Time) inventory.HostInfo {
	rec := inventory.HostInfo{
		Host:          host,
		Status:        inventory.StatusOK,
		QueriedAt:     now,
		OSVersion:     strings.TrimSpace(q.Caption + " " + q.Version),
		Architecture:  q.OSArchitecture,
		Manufacturer:  q.Manufacturer,
		HwReleaseDate: parseCIMTime(q.ReleaseDate),
		SerialNumber:  strings.TrimSpace(q.SerialNumber),
		BIOSVersion:   q.BIOSVersion,
	}
	if local := parseCIMTime(q.LocalDateTime); local != nil {
		rec.QueriedAt = *local
	}
	if boot := parseCIMTime(q.LastBootUpTime); boot != nil {
		rec.SetBootTime(*boot)
	}
	return rec
}
