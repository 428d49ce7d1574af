package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lending-engine/internal/domain/client"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

const clientColumns = `id, name, document, phone, email, birth_date, active, created_at, updated_at`

type ClientRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewClientRepository(db DBPool, logger *slog.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger.With("component", "ClientRepository")}
}

var _ client.ClientRepository = (*ClientRepository)(nil)

// Save inserts a new client or updates the mutable fields of an existing one.
func (r *ClientRepository) Save(ctx context.Context, c *client.Client) error {
	sql := `
        INSERT INTO clients (id, name, document, phone, email, birth_date, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name, phone = EXCLUDED.phone, email = EXCLUDED.email,
            birth_date = EXCLUDED.birth_date, updated_at = NOW()`

	_, err := r.db.Exec(ctx, sql, c.ID, c.Name, c.Document, c.Phone, c.Email, c.BirthDate, c.Active)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save client", "client_id", c.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, clientID uuid.UUID) (*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	status := "success"
	startTime := time.Now()

	c, err := scanClient(r.db.QueryRow(ctx, query, clientID))

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("FindClientByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Client not found", "client_id", clientID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get client by ID", "client_id", clientID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return c, nil
}

func (r *ClientRepository) FindByDocument(ctx context.Context, document string) (*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE document = $1`

	c, err := scanClient(r.db.QueryRow(ctx, query, document))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get client by document", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return c, nil
}

func (r *ClientRepository) FindAll(ctx context.Context, activeOnly bool) ([]*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE ($1 = false OR active = true) ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query clients", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	clients := make([]*client.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan client row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		clients = append(clients, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return clients, nil
}

func (r *ClientRepository) SetActiveStatus(ctx context.Context, clientID uuid.UUID, active bool) error {
	sql := `UPDATE clients SET active = $1, updated_at = NOW() WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, sql, active, clientID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to set client active status", "client_id", clientID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		return apperrors.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Client active status updated", "client_id", clientID, "active", active)
	return nil
}

func (r *ClientRepository) HasUnsettledContracts(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM contracts WHERE client_id = $1 AND status != 'SETTLED'`

	if err := r.db.QueryRow(ctx, query, clientID).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count unsettled contracts", "client_id", clientID, "error", err)
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return count > 0, nil
}

func scanClient(row pgx.Row) (*client.Client, error) {
	var c client.Client
	err := row.Scan(&c.ID, &c.Name, &c.Document, &c.Phone, &c.Email, &c.BirthDate, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
