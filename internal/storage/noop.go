package storage

import "github.com/tmeier/occuboard/backend/internal/types"

// Store defines the run-history storage interface
type Store interface {
	SaveReportRun(run types.ReportRun) error
	GetReportRuns(dateKey string) ([]types.ReportRun, error)
	TruncateAll() error
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveReportRun(_ types.ReportRun) error             { return nil }
func (s *NoopStore) GetReportRuns(_ string) ([]types.ReportRun, error) { return nil, nil }
func (s *NoopStore) TruncateAll() error                                { return nil }
