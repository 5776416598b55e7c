package inventory

import (
	"strconv"
	"strings"
)

// Contains reports whether filter appears, case-insensitively, in any of the
// entry's searchable columns. An empty filter matches everything.
func (s SoftwareEntry) Contains(filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	needle := strings.ToLower(filter)
	for _, field := range s.searchable() {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s SoftwareEntry) searchable() []string {
	fields := []string{
		s.Name,
		s.Publisher,
		s.Version,
		s.ProductID,
		strconv.FormatBool(s.SystemComponent),
		s.HelpLink,
		s.URLInfoAbout,
	}
	if s.InstallDate != nil {
		fields = append(fields, s.InstallDate.Format("2006-01-02"))
	}
	if s.SizeMB != nil {
		fields = append(fields, strconv.FormatFloat(*s.SizeMB, 'f', 2, 64))
	}
	return fields
}

// FilterSoftware returns the entries of list matching filter, in order.
func FilterSoftware(list []SoftwareEntry, filter string) []SoftwareEntry {
	if strings.TrimSpace(filter) == "" {
		return list
	}
	out := make([]SoftwareEntry, 0, len(list))
	for _, s := range list {
		if s.Contains(filter) {
			out = append(out, s)
		}
	}
	return out
}
