package client

import (
	"context"

	"github.com/google/uuid"
)

type ClientRepository interface {
	Save(ctx context.Context, c *Client) error

	FindByID(ctx context.Context, clientID uuid.UUID) (*Client, error)

	FindByDocument(ctx context.Context, document string) (*Client, error)

	FindAll(ctx context.Context, activeOnly bool) ([]*Client, error)

	SetActiveStatus(ctx context.Context, clientID uuid.UUID, active bool) error

	// HasUnsettledContracts reports whether any contract of the client is
	// not yet SETTLED. Deactivation is blocked while this holds.
	HasUnsettledContracts(ctx context.Context, clientID uuid.UUID) (bool, error)
}
