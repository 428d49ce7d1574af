package client

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("client not found")

	ErrClientInactive = errors.New("client is inactive")

	ErrClientHasOpenContracts = errors.New("client still has unsettled contracts")
)

// Client is a borrower. Document is the national ID (CPF); contracts
// reference clients by ID.
type Client struct {
	ID        uuid.UUID
	Name      string
	Document  string
	Phone     string
	Email     string
	BirthDate *time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
