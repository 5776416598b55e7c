package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
)

func TestNewWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	h := log.NewHelper(NewWriter(&buf, "warn"))

	h.Info("hidden message")
	h.Warn("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info line passed a warn filter: %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "ts=") {
		t.Errorf("warn line missing or undecorated: %q", out)
	}
}
