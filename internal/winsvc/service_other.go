//go:build !windows

package winsvc

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
)

var errUnsupported = errors.New("windows services are not supported on this platform")

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool { return false }

// EventLogger is not supported on non-Windows platforms.
func EventLogger(_ string) (log.Logger, error) { return nil, errUnsupported }

// Run is not supported on non-Windows platforms.
func (s *Service) Run(_ func(ctx context.Context) error) error { return errUnsupported }

// Install is not supported on non-Windows platforms.
func (s *Service) Install(_ string, _ []string) error { return errUnsupported }

// Uninstall is not supported on non-Windows platforms.
func (s *Service) Uninstall() error { return errUnsupported }
