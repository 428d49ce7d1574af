package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"lending-engine/internal/domain/client"
	"lending-engine/internal/pkg/apperrors"
)

func setupClientRepo(t *testing.T) (context.Context, *ClientRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	return context.Background(), NewClientRepository(mockPool, logger), mockPool
}

func testClient() *client.Client {
	return &client.Client{
		ID:       uuid.New(),
		Name:     "Maria Silva",
		Document: "12345678900",
		Phone:    "11999990000",
		Email:    "maria@example.com",
		Active:   true,
	}
}

func TestSaveClientWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupClientRepo(t)
	defer mockPool.Close()

	c := testClient()

	mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO clients`)).
		WithArgs(c.ID, c.Name, c.Document, c.Phone, c.Email, c.BirthDate, c.Active).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Save(ctx, c))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindClientByIDWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupClientRepo(t)
	defer mockPool.Close()

	clientID := uuid.New()
	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM clients WHERE id = $1`)).
		WithArgs(clientID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(ctx, clientID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindClientByDocument(t *testing.T) {
	ctx, repo, mockPool := setupClientRepo(t)
	defer mockPool.Close()

	c := testClient()
	rows := pgxmock.NewRows([]string{"id", "name", "document", "phone", "email", "birth_date", "active", "created_at", "updated_at"}).
		AddRow(c.ID, c.Name, c.Document, c.Phone, c.Email, c.BirthDate, c.Active, c.CreatedAt, c.UpdatedAt)

	mockPool.ExpectQuery(regexp.QuoteMeta(`FROM clients WHERE document = $1`)).
		WithArgs(c.Document).
		WillReturnRows(rows)

	got, err := repo.FindByDocument(ctx, c.Document)

	assert.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSetActiveStatusWhenMissing(t *testing.T) {
	ctx, repo, mockPool := setupClientRepo(t)
	defer mockPool.Close()

	clientID := uuid.New()
	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE clients SET active = $1`)).
		WithArgs(false, clientID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetActiveStatus(ctx, clientID, false)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestHasUnsettledContracts(t *testing.T) {
	ctx, repo, mockPool := setupClientRepo(t)
	defer mockPool.Close()

	clientID := uuid.New()
	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM contracts WHERE client_id = $1 AND status != 'SETTLED'`)).
		WithArgs(clientID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	has, err := repo.HasUnsettledContracts(ctx, clientID)

	assert.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
