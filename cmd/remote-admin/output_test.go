package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
)

func TestNewPrinter_RejectsUnknownFormat(t *testing.T) {
	if _, err := newPrinter(&bytes.Buffer{}, "xml"); err == nil {
		t.Error("xml should be rejected")
	}
}

func TestPrinter_Software(t *testing.T) {
	installed := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	size := 12.5
	list := []inventory.SoftwareEntry{
		{ProductID: "{AAA}", Name: "Alpha", Version: "1.0", InstallDate: &installed, SizeMB: &size},
		{ProductID: "Beta", Name: "Beta"},
	}

	var buf bytes.Buffer
	p, _ := newPrinter(&buf, "table")
	if err := p.Software(list); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "NAME") {
		t.Fatalf("table = %q", buf.String())
	}
	for _, want := range []string{"Alpha", "2024-03-05", "12.50", "{AAA}"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q lacks %q", lines[1], want)
		}
	}

	buf.Reset()
	p, _ = newPrinter(&buf, "json")
	if err := p.Software(list); err != nil {
		t.Fatal(err)
	}
	var decoded []inventory.SoftwareEntry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || len(decoded) != 2 {
		t.Errorf("json = %s (%v)", buf.String(), err)
	}
}

func TestPrinter_HostsYAML(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter(&buf, "yaml")
	if err := p.Hosts([]inventory.HostInfo{{Host: "pc1", Status: inventory.StatusOK}}); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 1 || decoded[0]["host"] != "pc1" {
		t.Errorf("yaml = %s", buf.String())
	}
}

func TestPrinter_EmptyJSONIsArray(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter(&buf, "json")
	if err := p.Hosts(nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty hosts = %q, want []", got)
	}
}

func TestFormatUptime(t *testing.T) {
	d := 49*time.Hour + 3*time.Minute + 4*time.Second + 500*time.Millisecond
	if got := formatUptime(&d); got != "2.01:03:04" {
		t.Errorf("formatUptime = %q", got)
	}
	if got := formatUptime(nil); got != "" {
		t.Errorf("formatUptime(nil) = %q", got)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := confirm(strings.NewReader(tt.in), &bytes.Buffer{}, "ok?"); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
