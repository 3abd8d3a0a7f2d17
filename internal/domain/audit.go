package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Audit action tags.
const (
	ActionInviteCreate      = "invite.create"
	ActionInviteUsed        = "invite.used"
	ActionUserCreate        = "user.create"
	ActionUserApprove       = "user.approve"
	ActionUserBlock         = "user.block"
	ActionUserUnblock       = "user.unblock"
	ActionUserRoleUpdate    = "user.role.update"
	ActionUserProfileUpdate = "user.profile.update"
	ActionUserPassword      = "user.password.change"
	ActionAccessRequest     = "user.request"
	ActionPollCreate        = "poll.create"
	ActionPollClose         = "poll.close"
	ActionWelfareRecord     = "welfare.transaction.create"
	ActionReportCreate      = "report.create"
	ActionReportUpdate      = "report.update"
	ActionPostPin           = "post.pin"
	ActionPostDelete        = "post.delete"
)

// AuditEntry is an append-only record of a privileged action. ActorID is
// empty for unauthenticated actions such as invite redemption.
type AuditEntry struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actorId,omitempty"`
	Action    string          `json:"action"`
	TargetID  string          `json:"targetId,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AuditRepository defines append-only storage for audit entries
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, limit int) ([]*AuditEntry, error)
}
