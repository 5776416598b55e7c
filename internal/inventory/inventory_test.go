package inventory

import (
	"testing"
	"time"
)

func TestKiBToMB(t *testing.T) {
	tests := []struct {
		kib  int64
		want float64
	}{
		{0, 0},
		{1024, 1},
		{2048, 2},
		{1536, 1.5},
		{1000, 0.98},
		{123456, 120.56},
		{5, 0}, // 0.0048...
		{6, 0.01},
	}

	for _, tt := range tests {
		if got := KiBToMB(tt.kib); got != tt.want {
			t.Errorf("KiBToMB(%d) = %v, want %v", tt.kib, got, tt.want)
		}
	}
}

func TestSizeMB_Nil(t *testing.T) {
	if SizeMB(nil) != nil {
		t.Error("SizeMB(nil) should be nil")
	}
	kib := int64(2048)
	if got := SizeMB(&kib); got == nil || *got != 2 {
		t.Errorf("SizeMB(2048) = %v", got)
	}
}

func TestParseInstallDate(t *testing.T) {
	want := time.Date(2023, time.March, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"ISO", "2023-03-07", true},
		{"Compact", "20230307", true},
		{"US dashes", "03-07-2023", true},
		{"Padded", " 20230307 ", true},
		{"Empty", "", false},
		{"Garbage", "last tuesday", false},
		{"Invalid month", "20231307", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseInstallDate(tt.input)
			if !tt.ok {
				if got != nil {
					t.Errorf("ParseInstallDate(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if got == nil || !got.Equal(want) {
				t.Errorf("ParseInstallDate(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestSoftwareEntry_Admit(t *testing.T) {
	tests := []struct {
		name       string
		entry      SoftwareEntry
		showHidden bool
		want       bool
	}{
		{"Valid", SoftwareEntry{ProductID: "{A}", Name: "App"}, false, true},
		{"Missing name", SoftwareEntry{ProductID: "{A}"}, false, false},
		{"Missing id", SoftwareEntry{Name: "App"}, false, false},
		{"Hidden component", SoftwareEntry{ProductID: "{A}", Name: "App", SystemComponent: true}, false, false},
		{"Hidden component shown", SoftwareEntry{ProductID: "{A}", Name: "App", SystemComponent: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Admit(tt.showHidden); got != tt.want {
				t.Errorf("Admit(%v) = %v, want %v", tt.showHidden, got, tt.want)
			}
		})
	}
}

func TestSoftwareEntry_Contains(t *testing.T) {
	date := time.Date(2021, time.January, 2, 0, 0, 0, 0, time.UTC)
	size := 12.5
	s := SoftwareEntry{
		ProductID:   "{1111-2222}",
		Name:        "Contoso Reader",
		Publisher:   "Contoso Ltd",
		Version:     "4.2.1",
		InstallDate: &date,
		SizeMB:      &size,
		HelpLink:    "https://help.contoso.example",
	}

	tests := []struct {
		filter string
		want   bool
	}{
		{"", true},
		{"reader", true},
		{"CONTOSO LTD", true},
		{"4.2", true},
		{"2021-01-02", true},
		{"12.50", true},
		{"1111", true},
		{"false", true},
		{"help.contoso", true},
		{"fabrikam", false},
	}

	for _, tt := range tests {
		if got := s.Contains(tt.filter); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestFilterSoftware(t *testing.T) {
	list := []SoftwareEntry{
		{ProductID: "{1}", Name: "Alpha"},
		{ProductID: "{2}", Name: "Beta"},
		{ProductID: "{3}", Name: "Alphabet"},
	}
	got := FilterSoftware(list, "alpha")
	if len(got) != 2 || got[0].ProductID != "{1}" || got[1].ProductID != "{3}" {
		t.Errorf("FilterSoftware = %v", got)
	}
	if len(FilterSoftware(list, " ")) != 3 {
		t.Error("blank filter should keep every entry")
	}
}

func TestDedupPolicies(t *testing.T) {
	existing := []SoftwareEntry{{ProductID: "{ABC-1}", Name: "One"}}
	if !SoftwareByProductID.IsDuplicate(existing, SoftwareEntry{ProductID: "{abc-1}", Name: "Other"}) {
		t.Error("product id comparison should be case-insensitive")
	}
	if SoftwareByProductID.IsDuplicate(existing, SoftwareEntry{ProductID: "{ABC-2}"}) {
		t.Error("distinct product id reported as duplicate")
	}

	hostsSeen := []HostInfo{{Host: "SRV01"}}
	if !HostInfoByHost.IsDuplicate(hostsSeen, HostInfo{Host: "srv01"}) {
		t.Error("host comparison should be case-insensitive")
	}
}

func TestHostInfo_SetBootTime(t *testing.T) {
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	h := HostInfo{Host: "srv", QueriedAt: now}
	h.SetBootTime(now.Add(-26*time.Hour - 500*time.Millisecond))

	if h.LastBootTime == nil {
		t.Fatal("LastBootTime not set")
	}
	if h.Uptime == nil || *h.Uptime != 26*time.Hour {
		t.Errorf("Uptime = %v, want 26h", h.Uptime)
	}

	future := HostInfo{Host: "srv", QueriedAt: now}
	future.SetBootTime(now.Add(time.Hour))
	if future.Uptime != nil {
		t.Errorf("boot after query time should leave Uptime nil, got %v", future.Uptime)
	}
}

func TestConnectionError(t *testing.T) {
	now := time.Now()
	h := ConnectionError("srv09", now)
	if h.Status != StatusConnectionError || h.Host != "srv09" || !h.QueriedAt.Equal(now) {
		t.Errorf("ConnectionError = %+v", h)
	}
	if h.LastBootTime != nil || h.Uptime != nil {
		t.Error("sentinel should carry no boot data")
	}
}
