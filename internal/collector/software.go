package collector

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-tangra/go-tangra-remote-admin/internal/collection"
	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
	"github.com/go-tangra/go-tangra-remote-admin/internal/remote"
)

// Software enumerates installed products under both uninstall roots of a
// host and merges them by product id.
type Software struct {
	Dialer     remote.Dialer
	Prober     remote.Prober
	Reporter   Reporter
	ShowHidden bool
}

// Preflight probes the host before a round starts. An unreachable host is
// reported to the caller instead of producing records.
func (s *Software) Preflight(ctx context.Context, host string) error {
	if s.Prober == nil || s.Prober.Probe(ctx, host) {
		return nil
	}
	return remote.NewFault(remote.Unreachable, host, nil)
}

func (s *Software) Collect(ctx context.Context, host string, coll *collection.Collection[inventory.SoftwareEntry]) {
	r, err := s.Dialer.Dial(ctx, host)
	if err != nil {
		report(s.Reporter, host, remote.Classify(host, err))
		return
	}
	defer r.Close()

	for _, root := range UninstallRoots {
		err := streamLines(ctx, r, softwareScript(root), func(line []byte) {
			if entry, ok := s.decode(line, coll); ok && coll.AppendUnique(inventory.SoftwareByProductID, entry) {
				coll.RequestNotify()
			}
		})
		if err != nil {
			report(s.Reporter, host, remote.Classify(host, err))
			return
		}
	}
}

// decode turns one script line into an admissible entry. Lines that are not
// standalone products, or whose product is already present, are rejected.
func (s *Software) decode(line []byte, coll *collection.Collection[inventory.SoftwareEntry]) (inventory.SoftwareEntry, bool) {
	var raw uninstallEntry
	if err := json.Unmarshal(line, &raw); err != nil {
		return inventory.SoftwareEntry{}, false
	}
	if !strings.HasPrefix(raw.Key, "{") || raw.ParentKeyName != "" {
		return inventory.SoftwareEntry{}, false
	}
	if collection.Contains(coll, inventory.SoftwareByProductID, raw.Key) {
		return inventory.SoftwareEntry{}, false
	}

	entry := raw.toEntry()
	return entry, entry.Admit(s.ShowHidden)
}

func (raw uninstallEntry) toEntry() inventory.SoftwareEntry {
	return inventory.SoftwareEntry{
		ProductID:       raw.Key,
		Name:            string(raw.DisplayName),
		Publisher:       string(raw.Publisher),
		Version:         string(raw.DisplayVersion),
		InstallDate:     inventory.ParseInstallDate(string(raw.InstallDate)),
		SizeMB:          inventory.SizeMB(raw.EstimatedSize.v),
		CanRemove:       raw.NoRemove.Or(0) == 0,
		SystemComponent: raw.SystemComponent.Or(0) == 1,
		HelpLink:        string(raw.HelpLink),
		URLInfoAbout:    string(raw.URLInfoAbout),
		Comment:         string(raw.Comment),
	}
}
