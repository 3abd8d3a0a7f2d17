package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type AuditRepository struct{ s *Store }

func (r *AuditRepository) Append(_ context.Context, e *domain.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *e
	r.s.audit = append(r.s.audit, &c)
	return nil
}

// List returns the newest entries first.
func (r *AuditRepository) List(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.AuditEntry{}
	for i := len(r.s.audit) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		c := *r.s.audit[i]
		out = append(out, &c)
	}
	return out, nil
}

type WelfareRepository struct{ s *Store }

func (r *WelfareRepository) Create(_ context.Context, tx *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	tx.CreatedAt = time.Now().UTC()
	c := *tx
	c.ProofDocs = cloneStrings(tx.ProofDocs)
	r.s.welfare = append(r.s.welfare, &c)
	return nil
}

func (r *WelfareRepository) ListBetween(_ context.Context, from, to time.Time) ([]*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Transaction{}
	for _, tx := range r.s.welfare {
		if !from.IsZero() && tx.TransactionDate.Before(from) {
			continue
		}
		if !to.IsZero() && !tx.TransactionDate.Before(to) {
			continue
		}
		c := *tx
		c.ProofDocs = cloneStrings(tx.ProofDocs)
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TransactionDate.After(out[j].TransactionDate) })
	return out, nil
}

type ReportRepository struct{ s *Store }

func (r *ReportRepository) Create(_ context.Context, rep *domain.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	rep.CreatedAt = time.Now().UTC()
	c := *rep
	r.s.reports[rep.ID] = &c
	return nil
}

func (r *ReportRepository) List(_ context.Context, status domain.ReportStatus) ([]*domain.Report, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Report{}
	for _, rep := range r.s.reports {
		if status != "" && rep.Status != status {
			continue
		}
		c := *rep
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ReportRepository) UpdateStatus(_ context.Context, id string, status domain.ReportStatus) (*domain.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	rep.Status = status
	c := *rep
	return &c, nil
}
