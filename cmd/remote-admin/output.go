package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-tangra/go-tangra-remote-admin/internal/inventory"
)

const dateLayout = "2006-01-02"

// printer renders query results as a table, JSON or YAML.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case "table", "json", "yaml":
		return &printer{w: w, format: format}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

func (p *printer) encode(v any) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not an encoding", p.format)
}

func (p *printer) Software(list []inventory.SoftwareEntry) error {
	if list == nil {
		list = []inventory.SoftwareEntry{}
	}
	if p.format != "table" {
		return p.encode(list)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tPUBLISHER\tINSTALLED\tSIZE (MB)\tPRODUCT ID")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, s.Version, s.Publisher, formatDate(s.InstallDate), formatSize(s.SizeMB), s.ProductID)
	}
	return tw.Flush()
}

func (p *printer) Hosts(list []inventory.HostInfo) error {
	if list == nil {
		list = []inventory.HostInfo{}
	}
	if p.format != "table" {
		return p.encode(list)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tSTATUS\tOS\tARCH\tLAST BOOT\tUPTIME\tMANUFACTURER\tSERIAL\tBIOS\tBIOS DATE")
	for _, h := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			h.Host, h.Status, h.OSVersion, h.Architecture, formatTime(h.LastBootTime), formatUptime(h.Uptime),
			h.Manufacturer, h.SerialNumber, h.BIOSVersion, formatDate(h.HwReleaseDate))
	}
	return tw.Flush()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatSize(mb *float64) string {
	if mb == nil {
		return ""
	}
	return strconv.FormatFloat(*mb, 'f', 2, 64)
}

// formatUptime renders d as days.hh:mm:ss.
func formatUptime(d *time.Duration) string {
	if d == nil {
		return ""
	}
	total := int64(d.Truncate(time.Second) / time.Second)
	days, rem := total/86400, total%86400
	return fmt.Sprintf("%d.%02d:%02d:%02d", days, rem/3600, rem%3600/60, rem%60)
}
