package client

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lending-engine/internal/pkg/apperrors"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Save(ctx context.Context, c *Client) error {
	ret := _m.Called(ctx, c)
	return ret.Error(0)
}

func (_m *MockRepository) FindByID(ctx context.Context, clientID uuid.UUID) (*Client, error) {
	ret := _m.Called(ctx, clientID)

	var r0 *Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Client)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByDocument(ctx context.Context, document string) (*Client, error) {
	ret := _m.Called(ctx, document)

	var r0 *Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Client)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindAll(ctx context.Context, activeOnly bool) ([]*Client, error) {
	ret := _m.Called(ctx, activeOnly)

	var r0 []*Client
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Client)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) SetActiveStatus(ctx context.Context, clientID uuid.UUID, active bool) error {
	ret := _m.Called(ctx, clientID, active)
	return ret.Error(0)
}

func (_m *MockRepository) HasUnsettledContracts(ctx context.Context, clientID uuid.UUID) (bool, error) {
	ret := _m.Called(ctx, clientID)
	return ret.Bool(0), ret.Error(1)
}

func TestNewClientService(t *testing.T) {
	t.Run("panics on nil repository", func(t *testing.T) {
		assert.PanicsWithValue(t, "client repository cannot be nil", func() {
			NewClientService(nil, logger)
		})
	})

	t.Run("panics on nil logger", func(t *testing.T) {
		assert.PanicsWithValue(t, "logger cannot be nil", func() {
			NewClientService(new(MockRepository), nil)
		})
	})
}

func TestCreateClient(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active client with trimmed fields", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByDocument", ctx, "12345678900").Return(nil, ErrNotFound).Once()
		repo.On("Save", ctx, mock.MatchedBy(func(c *Client) bool {
			return c.Name == "Maria Souza" &&
				c.Document == "12345678900" &&
				c.Phone == "11 99999-0000" &&
				c.Active &&
				c.ID != uuid.Nil
		})).Return(nil).Once()

		c, err := svc.CreateClient(ctx, "  Maria Souza ", " 12345678900 ", " 11 99999-0000 ", "", nil)

		assert.NoError(t, err)
		assert.NotNil(t, c)
		assert.True(t, c.Active)
		repo.AssertExpectations(t)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		_, err := svc.CreateClient(ctx, "   ", "12345678900", "", "", nil)

		var vErr *apperrors.ValidationError
		assert.ErrorAs(t, err, &vErr)
		assert.Equal(t, "name", vErr.Field)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects empty document", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		_, err := svc.CreateClient(ctx, "Maria Souza", "  ", "", "", nil)

		var vErr *apperrors.ValidationError
		assert.ErrorAs(t, err, &vErr)
		assert.Equal(t, "document", vErr.Field)
	})

	t.Run("rejects duplicate document", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		existing := &Client{ID: uuid.New(), Name: "Maria Souza", Document: "12345678900", Active: true}
		repo.On("FindByDocument", ctx, "12345678900").Return(existing, nil).Once()

		_, err := svc.CreateClient(ctx, "Other Name", "12345678900", "", "", nil)

		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("propagates repository failure on duplicate check", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByDocument", ctx, "12345678900").Return(nil, errors.New("connection reset")).Once()

		_, err := svc.CreateClient(ctx, "Maria Souza", "12345678900", "", "", nil)

		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("keeps the birth date when provided", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		birth := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)
		repo.On("FindByDocument", ctx, "98765432100").Return(nil, ErrNotFound).Once()
		repo.On("Save", ctx, mock.MatchedBy(func(c *Client) bool {
			return c.BirthDate != nil && c.BirthDate.Equal(birth)
		})).Return(nil).Once()

		c, err := svc.CreateClient(ctx, "Joao Lima", "98765432100", "", "joao@example.com", &birth)

		assert.NoError(t, err)
		assert.NotNil(t, c.BirthDate)
		repo.AssertExpectations(t)
	})
}

func TestGetClient(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	t.Run("returns the client", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		expected := &Client{ID: clientID, Name: "Maria Souza", Active: true}
		repo.On("FindByID", ctx, clientID).Return(expected, nil).Once()

		c, err := svc.GetClient(ctx, clientID)

		assert.NoError(t, err)
		assert.Equal(t, expected, c)
	})

	t.Run("maps a missing client to not found", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByID", ctx, clientID).Return(nil, ErrNotFound).Once()

		_, err := svc.GetClient(ctx, clientID)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("wraps unexpected repository errors", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByID", ctx, clientID).Return(nil, errors.New("connection reset")).Once()

		_, err := svc.GetClient(ctx, clientID)

		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	})
}

func TestListClients(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the active filter through", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		clients := []*Client{{ID: uuid.New(), Name: "Maria Souza", Active: true}}
		repo.On("FindAll", ctx, true).Return(clients, nil).Once()

		got, err := svc.ListClients(ctx, true)

		assert.NoError(t, err)
		assert.Len(t, got, 1)
		repo.AssertExpectations(t)
	})
}

func TestUpdateClient(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	t.Run("updates only the provided fields", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		current := &Client{ID: clientID, Name: "Maria Souza", Phone: "11 1111-1111", Email: "old@example.com", Active: true}
		repo.On("FindByID", ctx, clientID).Return(current, nil).Once()
		repo.On("Save", ctx, mock.MatchedBy(func(c *Client) bool {
			return c.Name == "Maria S. Souza" &&
				c.Phone == "11 1111-1111" &&
				c.Email == "new@example.com"
		})).Return(nil).Once()

		c, err := svc.UpdateClient(ctx, clientID, "Maria S. Souza", "", "new@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "Maria S. Souza", c.Name)
		assert.Equal(t, "11 1111-1111", c.Phone)
		repo.AssertExpectations(t)
	})

	t.Run("fails when the client does not exist", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByID", ctx, clientID).Return(nil, ErrNotFound).Once()

		_, err := svc.UpdateClient(ctx, clientID, "New Name", "", "")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestDeactivateClient(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	t.Run("deactivates a client without open contracts", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByID", ctx, clientID).Return(&Client{ID: clientID, Active: true}, nil).Once()
		repo.On("HasUnsettledContracts", ctx, clientID).Return(false, nil).Once()
		repo.On("SetActiveStatus", ctx, clientID, false).Return(nil).Once()

		err := svc.DeactivateClient(ctx, clientID)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("refuses while contracts remain unsettled", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByID", ctx, clientID).Return(&Client{ID: clientID, Active: true}, nil).Once()
		repo.On("HasUnsettledContracts", ctx, clientID).Return(true, nil).Once()

		err := svc.DeactivateClient(ctx, clientID)

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.ErrorIs(t, err, ErrClientHasOpenContracts)
		repo.AssertNotCalled(t, "SetActiveStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReactivateClient(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	t.Run("reactivates an existing client", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByID", ctx, clientID).Return(&Client{ID: clientID, Active: false}, nil).Once()
		repo.On("SetActiveStatus", ctx, clientID, true).Return(nil).Once()

		err := svc.ReactivateClient(ctx, clientID)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("fails when the client does not exist", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewClientService(repo, logger)

		repo.On("FindByID", ctx, clientID).Return(nil, ErrNotFound).Once()

		err := svc.ReactivateClient(ctx, clientID)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		repo.AssertNotCalled(t, "SetActiveStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}
