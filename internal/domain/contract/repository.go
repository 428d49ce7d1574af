package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateContract(ctx context.Context, c *Contract) (*Contract, error)

	GetContractByID(ctx context.Context, contractID uuid.UUID) (*Contract, error)

	ListContracts(ctx context.Context, from, to *time.Time) ([]*Contract, error)

	ListContractsByClient(ctx context.Context, clientID uuid.UUID) ([]*Contract, error)

	ListActiveContracts(ctx context.Context) ([]*Contract, error)

	// ListRecentContracts returns the newest contracts joined with their
	// client's name, for the dashboard.
	ListRecentContracts(ctx context.Context, limit int) ([]RecentContract, error)

	// GetPaymentsByContract returns the payment history in createdAt
	// ascending order, as balance reconstruction requires.
	GetPaymentsByContract(ctx context.Context, contractID uuid.UUID) ([]Payment, error)

	ListPaymentsInPeriod(ctx context.Context, from, to time.Time) ([]PaymentInPeriod, error)

	GetContractForUpdate(ctx context.Context, tx pgx.Tx, contractID uuid.UUID) (*Contract, error)

	InsertPaymentInTx(ctx context.Context, tx pgx.Tx, p *Payment) error

	UpdateContractBalancesInTx(ctx context.Context, tx pgx.Tx, c *Contract) error

	MarkInstallmentsPaidInTx(ctx context.Context, tx pgx.Tx, installmentIDs []uuid.UUID, paidAt time.Time) error

	UpdateInstallmentFeeInTx(ctx context.Context, tx pgx.Tx, installmentID uuid.UUID, fee decimal.Decimal) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
