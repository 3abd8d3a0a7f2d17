package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
)

const monthLayout = "2006-01"

// WelfareService records fund movements and summarizes the ledger
type WelfareService struct {
	ledger domain.WelfareRepository
	audit  *audit.Logger
	logger *slog.Logger
	now    func() time.Time
}

func NewWelfareService(ledger domain.WelfareRepository, auditLog *audit.Logger, logger *slog.Logger) *WelfareService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WelfareService{ledger: ledger, audit: auditLog, logger: logger, now: utcNow}
}

// RecordInput is the body of POST /api/welfare/transactions
type RecordInput struct {
	Type                  domain.TransactionType `json:"type"`
	Amount                int64                  `json:"amount"`
	Category              string                 `json:"category"`
	Reason                string                 `json:"reason"`
	BeneficiaryName       string                 `json:"beneficiaryName"`
	BeneficiaryAnonymized bool                   `json:"beneficiaryAnonymized"`
	ProofDocs             []string               `json:"proofDocs"`
	TransactionDate       *time.Time             `json:"transactionDate"`
}

// Dashboard is the welfare summary for a month, or all time when Month is nil.
type Dashboard struct {
	domain.WelfareSummary
	Month *string `json:"month"`
}

func (s *WelfareService) Record(ctx context.Context, actorID string, in RecordInput) (*domain.Transaction, error) {
	if in.Type != domain.TransactionIncome && in.Type != domain.TransactionExpense {
		return nil, domain.Invalid("type must be income or expense")
	}
	if in.Amount <= 0 {
		return nil, domain.Invalid("amount must be positive")
	}
	if err := missing(field("category", in.Category)); err != nil {
		return nil, err
	}

	date := s.now()
	if in.TransactionDate != nil {
		date = in.TransactionDate.UTC()
	}
	docs := in.ProofDocs
	if docs == nil {
		docs = []string{}
	}
	tx := &domain.Transaction{
		Type:                  in.Type,
		Amount:                in.Amount,
		Category:              strings.TrimSpace(in.Category),
		Reason:                strings.TrimSpace(in.Reason),
		BeneficiaryName:       strings.TrimSpace(in.BeneficiaryName),
		BeneficiaryAnonymized: in.BeneficiaryAnonymized,
		ProofDocs:             docs,
		CreatedBy:             actorID,
		TransactionDate:       date,
	}
	if tx.BeneficiaryAnonymized {
		tx.BeneficiaryName = ""
	}
	if err := s.ledger.Create(ctx, tx); err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, actorID, domain.ActionWelfareRecord, tx.ID, map[string]any{
		"type":   string(tx.Type),
		"amount": tx.Amount,
	})
	return tx, nil
}

// Dashboard summarizes the ledger. month is "YYYY-MM" in UTC or empty for
// all time.
func (s *WelfareService) Dashboard(ctx context.Context, month string) (*Dashboard, error) {
	var from, to time.Time
	var label *string
	if month = strings.TrimSpace(month); month != "" {
		start, err := time.Parse(monthLayout, month)
		if err != nil {
			return nil, domain.Invalid("month must be formatted as YYYY-MM")
		}
		from, to = start, start.AddDate(0, 1, 0)
		label = &month
	}
	txs, err := s.ledger.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &Dashboard{WelfareSummary: domain.Summarize(txs), Month: label}, nil
}
