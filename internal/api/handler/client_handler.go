package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/client"
	"lending-engine/internal/pkg/apperrors"
)

type ClientHandler struct {
	service client.ClientService
	logger  *slog.Logger
}

func NewClientHandler(s client.ClientService, l *slog.Logger) *ClientHandler {
	if s == nil {
		panic("client service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ClientHandler{
		service: s,
		logger:  l.With("component", "ClientHandler"),
	}
}

// CreateClient handles POST /clients
// @Summary Create a new client
// @Description Creates a client record. The document number must be unique.
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body dto.CreateClientRequest true "Client creation request"
// @Success 201 {object} dto.ClientResponse "Client successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 409 {object} dto.ErrorResponse "Document already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients [post]
// @Security BearerAuth
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateClient(r.Context(), req.Name, req.Document, req.Phone, req.Email, req.ParsedBirthDate())
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to create client", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Client created successfully", slog.String("clientID", created.ID.String()))
	respondJSON(w, http.StatusCreated, dto.NewClientResponse(created))
}

// GetClient handles GET /clients/{clientID}
// @Summary Retrieve client details
// @Description Retrieves details for a specific client by their ID.
// @Tags Clients
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Success 200 {object} dto.ClientResponse "Client details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID format"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID} [get]
// @Security BearerAuth
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuidFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	c, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get client", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewClientResponse(c))
}

// ListClients handles GET /clients
// @Summary List clients
// @Description Lists clients, by default only active ones. Pass all=true to include deactivated clients.
// @Tags Clients
// @Produce json
// @Param all query bool false "Include deactivated clients" Example(false)
// @Success 200 {array} dto.ClientResponse "List of clients"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients [get]
// @Security BearerAuth
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"

	clients, err := h.service.ListClients(r.Context(), activeOnly)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list clients", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Clients listed successfully", slog.Int("count", len(clients)))
	respondJSON(w, http.StatusOK, dto.NewClientListResponse(clients))
}

// UpdateClient handles PUT /clients/{clientID}
// @Summary Update client contact details
// @Description Updates a client's name, phone and email. Empty fields are left unchanged.
// @Tags Clients
// @Accept json
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Param request body dto.UpdateClientRequest true "Fields to update"
// @Success 200 {object} dto.ClientResponse "Client successfully updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID or request payload"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID} [put]
// @Security BearerAuth
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuidFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.UpdateClient(r.Context(), clientID, req.Name, req.Phone, req.Email)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to update client", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Client updated successfully", slog.String("clientID", clientID.String()))
	respondJSON(w, http.StatusOK, dto.NewClientResponse(updated))
}

// DeactivateClient handles DELETE /clients/{clientID}
// @Summary Deactivate a client
// @Description Marks a client as inactive. Fails while the client still has unsettled contracts.
// @Tags Clients
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Success 204 "Client successfully deactivated"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID or client has unsettled contracts"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID} [delete]
// @Security BearerAuth
func (h *ClientHandler) DeactivateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuidFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	err = h.service.DeactivateClient(r.Context(), clientID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInvalidState) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to deactivate client", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Client deactivated successfully", slog.String("clientID", clientID.String()))
	respondJSON(w, http.StatusNoContent, nil)
}

// ReactivateClient handles PUT /clients/{clientID}/reactivate
// @Summary Reactivate a client
// @Description Marks a previously deactivated client as active again.
// @Tags Clients
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Success 204 "Client successfully reactivated"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID}/reactivate [put]
// @Security BearerAuth
func (h *ClientHandler) ReactivateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuidFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	err = h.service.ReactivateClient(r.Context(), clientID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to reactivate client", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Client reactivated successfully", slog.String("clientID", clientID.String()))
	respondJSON(w, http.StatusNoContent, nil)
}
