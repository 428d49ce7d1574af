package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/finance"
	"lending-engine/internal/pkg/apperrors"
)

const expenseColumns = `id, series_id, description, kind, flow, status, category, amount, start_date, total_installments, current_installment, day_of_month, created_at, updated_at`

type FinanceRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewFinanceRepository(db DBPool, logger *slog.Logger) *FinanceRepository {
	return &FinanceRepository{db: db, logger: logger.With("component", "FinanceRepository")}
}

var _ finance.ExpenseRepository = (*FinanceRepository)(nil)

func (r *FinanceRepository) Save(ctx context.Context, e *finance.Expense) error {
	sql := `
        INSERT INTO expenses (id, series_id, description, kind, flow, status, category, amount, start_date, total_installments, current_installment, day_of_month, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`

	_, err := r.db.Exec(ctx, sql,
		e.ID, e.SeriesID, e.Description, e.Kind, e.Flow, e.Status, e.Category,
		e.Amount, e.StartDate, e.TotalInstallments, e.CurrentInstallment, e.DayOfMonth,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save expense", "expense_id", e.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *FinanceRepository) SaveBatch(ctx context.Context, entries []*finance.Expense) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin expense batch transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer tx.Rollback(ctx)

	sql := `
        INSERT INTO expenses (id, series_id, description, kind, flow, status, category, amount, start_date, total_installments, current_installment, day_of_month, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(sql,
			e.ID, e.SeriesID, e.Description, e.Kind, e.Flow, e.Status, e.Category,
			e.Amount, e.StartDate, e.TotalInstallments, e.CurrentInstallment, e.DayOfMonth,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range entries {
		if _, err = results.Exec(); err != nil {
			results.Close()
			r.logger.ErrorContext(ctx, "Failed executing expense batch insert", "error", err, "entry_index", i)
			return fmt.Errorf("%w: failed inserting expense slice %d: %w", apperrors.ErrDatabase, i+1, err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit expense batch", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *FinanceRepository) FindByID(ctx context.Context, expenseID uuid.UUID) (*finance.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.db.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get expense by ID", "expense_id", expenseID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return e, nil
}

func (r *FinanceRepository) List(ctx context.Context, filter finance.ListFilter) ([]*finance.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
        WHERE ($1::timestamptz IS NULL OR start_date >= $1)
          AND ($2::timestamptz IS NULL OR start_date <= $2)
          AND ($3::text IS NULL OR kind = $3)
          AND ($4::text IS NULL OR flow = $4)
          AND ($5::text IS NULL OR status = $5)
          AND ($6 = '' OR description ILIKE '%' || $6 || '%' OR category ILIKE '%' || $6 || '%')
        ORDER BY start_date DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, filter.From, filter.To, filter.Kind, filter.Flow, filter.Status, filter.Search)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query expenses", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	entries := make([]*finance.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan expense row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return entries, nil
}

func (r *FinanceRepository) Update(ctx context.Context, e *finance.Expense) error {
	sql := `
        UPDATE expenses
        SET description = $1, category = $2, amount = $3, status = $4, start_date = $5, day_of_month = $6, updated_at = NOW()
        WHERE id = $7`

	cmdTag, err := r.db.Exec(ctx, sql, e.Description, e.Category, e.Amount, e.Status, e.StartDate, e.DayOfMonth, e.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update expense", "expense_id", e.ID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *FinanceRepository) Delete(ctx context.Context, e *finance.Expense, mode finance.DeleteMode) error {
	var sql string
	var args []any

	switch mode {
	case finance.DeleteAll:
		sql = `DELETE FROM expenses WHERE series_id = $1`
		args = []any{e.SeriesID}
	case finance.DeleteFuture:
		sql = `DELETE FROM expenses WHERE series_id = $1 AND current_installment >= $2`
		args = []any{e.SeriesID, e.CurrentInstallment}
	default:
		sql = `DELETE FROM expenses WHERE id = $1`
		args = []any{e.ID}
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete expense", "expense_id", e.ID, "mode", mode, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *FinanceRepository) SumCompletedByFlow(ctx context.Context, flow finance.Flow, from, to *time.Time) (decimal.Decimal, error) {
	query := `
        SELECT COALESCE(SUM(amount), 0)
        FROM expenses
        WHERE flow = $1 AND status = 'COMPLETED'
          AND ($2::timestamptz IS NULL OR start_date >= $2)
          AND ($3::timestamptz IS NULL OR start_date <= $3)`

	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, query, flow, from, to).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Failed to sum expenses", "flow", flow, "error", err)
		return decimal.Zero, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return total, nil
}

func (r *FinanceRepository) CountInPeriod(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM expenses WHERE start_date >= $1 AND start_date <= $2`

	if err := r.db.QueryRow(ctx, query, from, to).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count expenses in period", "error", err)
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return count, nil
}

func scanExpense(row pgx.Row) (*finance.Expense, error) {
	var e finance.Expense
	err := row.Scan(
		&e.ID, &e.SeriesID, &e.Description, &e.Kind, &e.Flow, &e.Status, &e.Category,
		&e.Amount, &e.StartDate, &e.TotalInstallments, &e.CurrentInstallment, &e.DayOfMonth,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
