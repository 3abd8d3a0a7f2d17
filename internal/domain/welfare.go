package domain

import (
	"context"
	"time"
)

// TransactionType is the direction of a welfare fund movement.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is a welfare fund ledger entry. Amount is in whole rupees.
type Transaction struct {
	ID                    string          `json:"id"`
	Type                  TransactionType `json:"type"`
	Amount                int64           `json:"amount"`
	Category              string          `json:"category"`
	Reason                string          `json:"reason,omitempty"`
	BeneficiaryName       string          `json:"beneficiaryName,omitempty"`
	BeneficiaryAnonymized bool            `json:"beneficiaryAnonymized"`
	ProofDocs             []string        `json:"proofDocs"`
	CreatedBy             string          `json:"createdBy"`
	TransactionDate       time.Time       `json:"transactionDate"`
	CreatedAt             time.Time       `json:"createdAt"`
}

// WelfareSummary aggregates ledger entries.
type WelfareSummary struct {
	Balance      int64          `json:"balance"`
	TotalIncome  int64          `json:"totalIncome"`
	TotalExpense int64          `json:"totalExpense"`
	Transactions []*Transaction `json:"transactions"`
}

// Summarize totals a set of ledger entries.
func Summarize(txs []*Transaction) WelfareSummary {
	s := WelfareSummary{Transactions: txs}
	if s.Transactions == nil {
		s.Transactions = []*Transaction{}
	}
	for _, t := range txs {
		switch t.Type {
		case TransactionIncome:
			s.TotalIncome += t.Amount
		case TransactionExpense:
			s.TotalExpense += t.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	return s
}

// WelfareRepository defines data access for the welfare ledger. A zero
// from or to leaves that side of the range open.
type WelfareRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	ListBetween(ctx context.Context, from, to time.Time) ([]*Transaction, error)
}
