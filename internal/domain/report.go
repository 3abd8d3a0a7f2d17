package domain

import (
	"context"
	"time"
)

// ReportType names what is being reported.
type ReportType string

const (
	ReportPost    ReportType = "post"
	ReportComment ReportType = "comment"
	ReportMessage ReportType = "message"
)

// ReportStatus tracks moderation progress.
type ReportStatus string

const (
	ReportOpen     ReportStatus = "open"
	ReportReviewed ReportStatus = "reviewed"
	ReportActioned ReportStatus = "actioned"
)

// Report is a moderation request raised by a member.
type Report struct {
	ID         string       `json:"id"`
	Type       ReportType   `json:"type"`
	TargetID   string       `json:"targetId"`
	Reason     string       `json:"reason"`
	ReportedBy string       `json:"reportedBy"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// ReportRepository defines data access for moderation reports
type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	List(ctx context.Context, status ReportStatus) ([]*Report, error)
	UpdateStatus(ctx context.Context, id string, status ReportStatus) (*Report, error)
}
