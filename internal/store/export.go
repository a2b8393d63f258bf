package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/interviewsim/internal/model"
	"github.com/pavelanni/interviewsim/internal/report"
)

// ExportAll builds the export document for every archived interview,
// optionally limited to one role.
func (s *Store) ExportAll(role string) (model.ArchiveExport, error) {
	summaries, err := s.ListReports(role)
	if err != nil {
		return model.ArchiveExport{}, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]model.ReportExport, 0, len(summaries))
	for _, sum := range summaries {
		r, err := s.GetReport(sum.SessionID)
		if err != nil {
			return model.ArchiveExport{}, fmt.Errorf("get report %s: %w", sum.SessionID, err)
		}
		reports = append(reports, report.ToExport(r))
	}

	return model.ArchiveExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(reports),
		Reports:    reports,
	}, nil
}
