package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB    Pinger
	Store string
}

// Report is the health payload.
type Report struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Store    string `json:"store"`
}

// NewService constructs a new health service. A nil db means in-memory
// repositories are in use.
func NewService(db Pinger, store string) *Service {
	return &Service{DB: db, Store: store}
}

// Status reports whether the service can serve requests.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true, Database: "memory", Store: s.Store}
	if s.DB == nil {
		return report
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		report.OK = false
		report.Database = "down"
		return report
	}
	report.Database = "up"
	return report
}
