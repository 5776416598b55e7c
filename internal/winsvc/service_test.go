//go:build !windows

package winsvc

import "testing"

func TestUnsupportedPlatform(t *testing.T) {
	if IsWindowsService() {
		t.Error("IsWindowsService should be false")
	}
	s := &Service{Name: "TangraRemoteAdmin"}
	if err := s.Install("/bin/true", nil); err == nil {
		t.Error("Install should fail off Windows")
	}
	if err := s.Uninstall(); err == nil {
		t.Error("Uninstall should fail off Windows")
	}
	if _, err := EventLogger(s.Name); err == nil {
		t.Error("EventLogger should fail off Windows")
	}
}
