package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/contract"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

const contractColumns = `id, client_id, principal, open_principal, interest_rate, accrued_fee, interest_due, periodicity, due_date, status, note, created_at, updated_at`

const installmentColumns = `id, contract_id, sequence_number, amount, fee, due_date, status, paid_at, created_at, updated_at`

const paymentColumns = `id, contract_id, kind, amount_paid, allocated_fee, allocated_interest, allocated_principal, note, created_at`

type ContractRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewContractRepository(db DBPool, logger *slog.Logger) *ContractRepository {
	return &ContractRepository{db: db, logger: logger.With("component", "ContractRepository")}
}

var _ contract.Repository = (*ContractRepository)(nil)

func (r *ContractRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *ContractRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *ContractRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *ContractRepository) CreateContract(ctx context.Context, c *contract.Contract) (*contract.Contract, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	contractSQL := `
        INSERT INTO contracts (id, client_id, principal, open_principal, interest_rate, accrued_fee, interest_due, periodicity, due_date, status, note, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
        RETURNING ` + contractColumns

	created, err := scanContract(tx.QueryRow(ctx, contractSQL,
		c.ID, c.ClientID, c.Principal, c.OpenPrincipal, c.InterestRatePercent,
		c.AccruedFee, c.InterestDue, c.Periodicity, c.DueDate, c.Status, c.Note,
	))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert contract", "error", err)
		return nil, translateDBError(err, r.logger)
	}

	if len(c.Installments) > 0 {
		installmentSQL := `
            INSERT INTO installments (id, contract_id, sequence_number, amount, fee, due_date, status, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

		batch := &pgx.Batch{}
		for _, inst := range c.Installments {
			batch.Queue(installmentSQL, inst.ID, c.ID, inst.SequenceNumber, inst.Amount, inst.Fee, inst.DueDate, inst.Status)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range c.Installments {
			if _, err = results.Exec(); err != nil {
				results.Close()
				r.logger.ErrorContext(ctx, "Failed executing installment batch insert", "error", err, "entry_index", i, "contract_id", c.ID)
				return nil, fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, i+1, err)
			}
		}
		if err = results.Close(); err != nil {
			r.logger.ErrorContext(ctx, "Failed closing installment batch results", "error", err, "contract_id", c.ID)
			return nil, fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
		}
	}

	if err = r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	created.Installments = c.Installments
	r.logger.InfoContext(ctx, "Contract created in DB", "contract_id", created.ID, "installments", len(c.Installments))
	return created, nil
}

func (r *ContractRepository) GetContractByID(ctx context.Context, contractID uuid.UUID) (*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`
	status := "success"
	startTime := time.Now()

	c, err := scanContract(r.db.QueryRow(ctx, query, contractID))

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetContractByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Contract not found", "contract_id", contractID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get contract by ID", "contract_id", contractID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if err := r.attachInstallments(ctx, []*contract.Contract{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContractRepository) ListContracts(ctx context.Context, from, to *time.Time) ([]*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts
        WHERE ($1::timestamptz IS NULL OR created_at >= $1)
          AND ($2::timestamptz IS NULL OR created_at <= $2)
        ORDER BY created_at DESC`

	return r.queryContracts(ctx, query, from, to)
}

func (r *ContractRepository) ListContractsByClient(ctx context.Context, clientID uuid.UUID) ([]*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE client_id = $1 ORDER BY created_at DESC`
	return r.queryContracts(ctx, query, clientID)
}

func (r *ContractRepository) ListActiveContracts(ctx context.Context) ([]*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE status IN ($1, $2) ORDER BY due_date ASC`
	return r.queryContracts(ctx, query, contract.StatusOpen, contract.StatusOverdue)
}

func (r *ContractRepository) ListRecentContracts(ctx context.Context, limit int) ([]contract.RecentContract, error) {
	query := `
        SELECT c.id, cl.name, c.principal, c.due_date, c.status
        FROM contracts c
        JOIN clients cl ON cl.id = c.client_id
        ORDER BY c.created_at DESC
        LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query recent contracts", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	recent := make([]contract.RecentContract, 0, limit)
	for rows.Next() {
		var rc contract.RecentContract
		if err := rows.Scan(&rc.ContractID, &rc.ClientName, &rc.Principal, &rc.DueDate, &rc.Status); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan recent contract row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		recent = append(recent, rc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return recent, nil
}

func (r *ContractRepository) GetPaymentsByContract(ctx context.Context, contractID uuid.UUID) ([]contract.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE contract_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, contractID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query payments", "contract_id", contractID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]contract.Payment, 0)
	for rows.Next() {
		var p contract.Payment
		if err := rows.Scan(&p.ID, &p.ContractID, &p.Kind, &p.AmountPaid, &p.AllocatedFee, &p.AllocatedInterest, &p.AllocatedPrincipal, &p.Note, &p.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", "contract_id", contractID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return payments, nil
}

func (r *ContractRepository) ListPaymentsInPeriod(ctx context.Context, from, to time.Time) ([]contract.PaymentInPeriod, error) {
	query := `
        SELECT p.id, p.contract_id, p.kind, p.amount_paid, p.allocated_fee, p.allocated_interest, p.allocated_principal, p.note, p.created_at,
               c.periodicity, cl.name
        FROM payments p
        JOIN contracts c ON c.id = p.contract_id
        JOIN clients cl ON cl.id = c.client_id
        WHERE p.created_at >= $1 AND p.created_at <= $2
        ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query payments in period", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]contract.PaymentInPeriod, 0)
	for rows.Next() {
		var p contract.PaymentInPeriod
		if err := rows.Scan(&p.ID, &p.ContractID, &p.Kind, &p.AmountPaid, &p.AllocatedFee, &p.AllocatedInterest, &p.AllocatedPrincipal, &p.Note, &p.CreatedAt,
			&p.ContractPeriodicity, &p.ClientName); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan period payment row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return payments, nil
}

func (r *ContractRepository) GetContractForUpdate(ctx context.Context, tx pgx.Tx, contractID uuid.UUID) (*contract.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1 FOR UPDATE`

	c, err := scanContract(tx.QueryRow(ctx, query, contractID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.InfoContext(ctx, "Contract not found for update", "contract_id", contractID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock contract row", "contract_id", contractID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	instQuery := `SELECT ` + installmentColumns + ` FROM installments WHERE contract_id = $1 ORDER BY sequence_number ASC FOR UPDATE`
	rows, err := tx.Query(ctx, instQuery, contractID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to lock installment rows", "contract_id", contractID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		c.Installments = append(c.Installments, inst)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return c, nil
}

func (r *ContractRepository) InsertPaymentInTx(ctx context.Context, tx pgx.Tx, p *contract.Payment) error {
	sql := `
        INSERT INTO payments (id, contract_id, kind, amount_paid, allocated_fee, allocated_interest, allocated_principal, note, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, sql, p.ID, p.ContractID, p.Kind, p.AmountPaid, p.AllocatedFee, p.AllocatedInterest, p.AllocatedPrincipal, p.Note, p.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert payment", "payment_id", p.ID, "contract_id", p.ContractID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *ContractRepository) UpdateContractBalancesInTx(ctx context.Context, tx pgx.Tx, c *contract.Contract) error {
	sql := `
        UPDATE contracts
        SET open_principal = $1, accrued_fee = $2, interest_due = $3, due_date = $4, status = $5, updated_at = NOW()
        WHERE id = $6`

	cmdTag, err := tx.Exec(ctx, sql, c.OpenPrincipal, c.AccruedFee, c.InterestDue, c.DueDate, c.Status, c.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update contract balances", "contract_id", c.ID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Contract balance update affected zero rows", "contract_id", c.ID)
		return fmt.Errorf("%w: contract balance update affected zero rows", apperrors.ErrDatabase)
	}
	return nil
}

func (r *ContractRepository) MarkInstallmentsPaidInTx(ctx context.Context, tx pgx.Tx, installmentIDs []uuid.UUID, paidAt time.Time) error {
	sql := `
        UPDATE installments
        SET status = $1, paid_at = $2, updated_at = NOW()
        WHERE id = ANY($3) AND status != $1`

	cmdTag, err := tx.Exec(ctx, sql, "PAID", paidAt, installmentIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark installments paid", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if int(cmdTag.RowsAffected()) != len(installmentIDs) {
		r.logger.ErrorContext(ctx, "Installment update affected unexpected row count", "expected", len(installmentIDs), "affected", cmdTag.RowsAffected())
		return fmt.Errorf("%w: expected %d installment updates, got %d", apperrors.ErrDatabase, len(installmentIDs), cmdTag.RowsAffected())
	}
	return nil
}

func (r *ContractRepository) UpdateInstallmentFeeInTx(ctx context.Context, tx pgx.Tx, installmentID uuid.UUID, fee decimal.Decimal) error {
	sql := `UPDATE installments SET fee = $1, updated_at = NOW() WHERE id = $2`

	cmdTag, err := tx.Exec(ctx, sql, fee, installmentID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update installment fee", "installment_id", installmentID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return fmt.Errorf("%w: installment fee update affected zero rows", apperrors.ErrDatabase)
	}
	return nil
}

func (r *ContractRepository) queryContracts(ctx context.Context, query string, args ...any) ([]*contract.Contract, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query contracts", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	contracts := make([]*contract.Contract, 0)
	for rows.Next() {
		c, err := scanContractRow(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan contract row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		contracts = append(contracts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if err := r.attachInstallments(ctx, contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// attachInstallments loads the schedules of all given contracts in one query.
func (r *ContractRepository) attachInstallments(ctx context.Context, contracts []*contract.Contract) error {
	if len(contracts) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*contract.Contract, len(contracts))
	ids := make([]uuid.UUID, 0, len(contracts))
	for _, c := range contracts {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	query := `SELECT ` + installmentColumns + ` FROM installments WHERE contract_id = ANY($1) ORDER BY contract_id, sequence_number ASC`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query installments", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan installment row", "error", err)
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if c, ok := byID[inst.ContractID]; ok {
			c.Installments = append(c.Installments, inst)
		}
	}
	return rows.Err()
}

func scanContract(row pgx.Row) (*contract.Contract, error) {
	var c contract.Contract
	err := row.Scan(
		&c.ID, &c.ClientID, &c.Principal, &c.OpenPrincipal, &c.InterestRatePercent,
		&c.AccruedFee, &c.InterestDue, &c.Periodicity, &c.DueDate, &c.Status,
		&c.Note, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanContractRow(rows pgx.Rows) (*contract.Contract, error) {
	return scanContract(rows)
}

func scanInstallment(rows pgx.Rows) (contract.Installment, error) {
	var inst contract.Installment
	err := rows.Scan(
		&inst.ID, &inst.ContractID, &inst.SequenceNumber, &inst.Amount, &inst.Fee,
		&inst.DueDate, &inst.Status, &inst.PaidAt, &inst.CreatedAt, &inst.UpdatedAt,
	)
	return inst, err
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}
		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
