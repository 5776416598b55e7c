// Package winsvc runs remote-admin's serve mode under the Windows Service
// Control Manager.
package winsvc

import (
	"github.com/go-kratos/kratos/v2/log"
)

// Service describes the SCM registration of the server.
type Service struct {
	Name        string
	DisplayName string
	Description string
	Log         *log.Helper
}

func (s *Service) logger() *log.Helper {
	if s.Log == nil {
		return log.NewHelper(log.DefaultLogger)
	}
	return s.Log
}
