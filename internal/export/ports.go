package export

import (
	"context"

	"fintrack/internal/report"
)

// Ports for outbound report sinks.
type (
	// ReportWriter persists a user's computed overview and spending
	// distribution to an external destination.
	ReportWriter interface {
		AppendReport(ctx context.Context, userID string, ov report.Overview, shares []report.CategoryShare) error
	}
)
