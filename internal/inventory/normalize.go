package inventory

import (
	"math"
	"strings"
	"time"
)

// installDateLayouts are the registry InstallDate spellings we accept.
var installDateLayouts = []string{
	"2006-01-02",
	"20060102",
	"01-02-2006",
}

// ParseInstallDate tries each known layout and returns nil when none match.
func ParseInstallDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range installDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// KiBToMB converts a registry EstimatedSize (KiB) to megabytes rounded to
// two decimals, halves away from zero.
func KiBToMB(kib int64) float64 {
	return math.Round(float64(kib)/1024*100) / 100
}

// SizeMB is KiBToMB for an optional value.
func SizeMB(kib *int64) *float64 {
	if kib == nil {
		return nil
	}
	mb := KiBToMB(*kib)
	return &mb
}
