package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lending-engine/internal/pkg/apperrors"
)

type ClientService interface {
	CreateClient(ctx context.Context, name, document, phone, email string, birthDate *time.Time) (*Client, error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*Client, error)
	ListClients(ctx context.Context, activeOnly bool) ([]*Client, error)
	UpdateClient(ctx context.Context, clientID uuid.UUID, name, phone, email string) (*Client, error)
	DeactivateClient(ctx context.Context, clientID uuid.UUID) error
	ReactivateClient(ctx context.Context, clientID uuid.UUID) error
}

var _ ClientService = (*clientService)(nil)

type clientService struct {
	repo   ClientRepository
	logger *slog.Logger
}

func NewClientService(repo ClientRepository, logger *slog.Logger) ClientService {
	if repo == nil {
		panic("client repository cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &clientService{
		repo:   repo,
		logger: logger.With(slog.String("component", "clientService")),
	}
}

func (s *clientService) CreateClient(ctx context.Context, name, document, phone, email string, birthDate *time.Time) (*Client, error) {
	name = strings.TrimSpace(name)
	document = strings.TrimSpace(document)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "cannot be empty")
	}
	if document == "" {
		return nil, apperrors.NewValidationError("document", "cannot be empty")
	}

	existing, err := s.repo.FindByDocument(ctx, document)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.ErrorContext(ctx, "Failed to check for existing document", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check for existing client: %w", err)
	}
	if existing != nil {
		s.logger.WarnContext(ctx, "Attempted to register duplicate document")
		return nil, fmt.Errorf("%w: a client with this document already exists", apperrors.ErrAlreadyExists)
	}

	c := &Client{
		ID:        uuid.New(),
		Name:      name,
		Document:  document,
		Phone:     strings.TrimSpace(phone),
		Email:     strings.TrimSpace(email),
		BirthDate: birthDate,
		Active:    true,
	}

	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save client", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to save client: %v", apperrors.ErrInternalServer, err)
	}

	s.logger.InfoContext(ctx, "Client created", "clientID", c.ID)
	return c, nil
}

func (s *clientService) GetClient(ctx context.Context, clientID uuid.UUID) (*Client, error) {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: client %s not found", apperrors.ErrNotFound, clientID)
		}
		s.logger.ErrorContext(ctx, "Failed to get client", "clientID", clientID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get client %s: %v", apperrors.ErrInternalServer, clientID, err)
	}
	return c, nil
}

func (s *clientService) ListClients(ctx context.Context, activeOnly bool) ([]*Client, error) {
	clients, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list clients", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list clients: %v", apperrors.ErrInternalServer, err)
	}
	return clients, nil
}

func (s *clientService) UpdateClient(ctx context.Context, clientID uuid.UUID, name, phone, email string) (*Client, error) {
	c, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		c.Name = name
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		c.Phone = phone
	}
	if email = strings.TrimSpace(email); email != "" {
		c.Email = email
	}

	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update client", "clientID", clientID, slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to update client %s: %v", apperrors.ErrInternalServer, clientID, err)
	}

	s.logger.InfoContext(ctx, "Client updated", "clientID", clientID)
	return c, nil
}

func (s *clientService) DeactivateClient(ctx context.Context, clientID uuid.UUID) error {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return err
	}

	hasOpen, err := s.repo.HasUnsettledContracts(ctx, clientID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to check open contracts", "clientID", clientID, slog.Any("error", err))
		return fmt.Errorf("%w: failed to check open contracts for client %s: %v", apperrors.ErrInternalServer, clientID, err)
	}
	if hasOpen {
		s.logger.WarnContext(ctx, "Refusing to deactivate client with open contracts", "clientID", clientID)
		return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrClientHasOpenContracts)
	}

	if err := s.repo.SetActiveStatus(ctx, clientID, false); err != nil {
		s.logger.ErrorContext(ctx, "Failed to deactivate client", "clientID", clientID, slog.Any("error", err))
		return fmt.Errorf("%w: failed to deactivate client %s: %v", apperrors.ErrInternalServer, clientID, err)
	}

	s.logger.InfoContext(ctx, "Client deactivated", "clientID", clientID)
	return nil
}

func (s *clientService) ReactivateClient(ctx context.Context, clientID uuid.UUID) error {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return err
	}

	if err := s.repo.SetActiveStatus(ctx, clientID, true); err != nil {
		s.logger.ErrorContext(ctx, "Failed to reactivate client", "clientID", clientID, slog.Any("error", err))
		return fmt.Errorf("%w: failed to reactivate client %s: %v", apperrors.ErrInternalServer, clientID, err)
	}

	s.logger.InfoContext(ctx, "Client reactivated", "clientID", clientID)
	return nil
}
