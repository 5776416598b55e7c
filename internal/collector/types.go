package collector

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// uninstallEntry is one line of the registry enumeration script output.
type uninstallEntry struct {
	Key             string    `json:"Key"`
	DisplayName     regString `json:"DisplayName"`
	Publisher       regString `json:"Publisher"`
	DisplayVersion  regString `json:"DisplayVersion"`
	InstallDate     regString `json:"InstallDate"`
	ParentKeyName   regString `json:"ParentKeyName"`
	HelpLink        regString `json:"HelpLink"`
	Comment         regString `json:"Comment"`
	URLInfoAbout    regString `json:"URLInfoAbout"`
	NoRemove        regDword  `json:"NoRemove"`
	SystemComponent regDword  `json:"SystemComponent"`
	EstimatedSize   regDword  `json:"EstimatedSize"`
}

// hostQuery is the output of the CIM host description script.
type hostQuery struct {
	LocalDateTime  string `json:"LocalDateTime"`
	LastBootUpTime string `json:"LastBootUpTime"`
	Caption        string `json:"Caption"`
	Version        string `json:"Version"`
	OSArchitecture string `json:"OSArchitecture"`
	Manufacturer   string `json:"Manufacturer"`
	ReleaseDate    string `json:"ReleaseDate"`
	SerialNumber   string `json:"SerialNumber"`
	BIOSVersion    string `json:"BIOSVersion"`
}

// uninstallResult is one matched product from the uninstall script.
type uninstallResult struct {
	Name        string `json:"Name"`
	ReturnValue int    `json:"ReturnValue"`
}

// regString holds a registry string value. Non-string values decode to "".
type regString string

func (s *regString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		*s = ""
		return nil
	}
	*s = regString(strings.TrimSpace(v))
	return nil
}

// regDword holds an optional registry DWORD. Missing or non-numeric values
// decode to nil.
type regDword struct {
	v *int64
}

func (d *regDword) UnmarshalJSON(b []byte) error {
	d.v = nil
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		d.v = &i
	}
	return nil
}

// Or returns the value, or def when it is missing.
func (d regDword) Or(def int64) int64 {
	if d.v == nil {
		return def
	}
	return *d.v
}

func parseCIMTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
