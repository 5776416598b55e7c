package collector

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/siderolabs/go-smbios/smbios"

	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
)

// smbiosDateLayouts covers the BIOS release date spellings seen in the wild.
var smbiosDateLayouts = []string{"01/02/2006", "01/02/06", "2006-01-02"}

// Local describes the machine running the tool from its SMBIOS tables.
func Local() (inventory.HostInfo, error) {
	hostname, _ := os.Hostname()
	rec := inventory.HostInfo{
		Host:         hostname,
		Status:       inventory.StatusOK,
		QueriedAt:    time.Now(),
		OSVersion:    runtime.GOOS,
		Architecture: runtime.GOARCH,
	}

	s, err := smbios.New()
	if err != nil {
		rec.Status = err.Error()
		return rec, fmt.Errorf("read smbios: %w", err)
	}

	rec.Manufacturer = strings.TrimSpace(s.SystemInformation.Manufacturer)
	rec.SerialNumber = strings.TrimSpace(s.SystemInformation.SerialNumber)
	rec.BIOSVersion = strings.TrimSpace(s.BIOSInformation.Version)
	rec.HwReleaseDate = parseSMBIOSDate(s.BIOSInformation.ReleaseDate)
	return rec, nil
}

func parseSMBIOSDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range smbiosDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
