package dto

import (
	"fmt"
	"strings"
	"time"

	"lending-engine/internal/domain/client"
)

type CreateClientRequest struct {
	Name      string `json:"name"`
	Document  string `json:"document"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
}

func (r *CreateClientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.Document) == "" {
		return fmt.Errorf("document is required")
	}
	if r.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", r.BirthDate); err != nil {
			return fmt.Errorf("birthDate must be YYYY-MM-DD")
		}
	}
	return nil
}

func (r *CreateClientRequest) ParsedBirthDate() *time.Time {
	if r.BirthDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", r.BirthDate)
	if err != nil {
		return nil
	}
	return &t
}

type UpdateClientRequest struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type ClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Document  string `json:"document"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func NewClientResponse(c *client.Client) ClientResponse {
	resp := ClientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Document:  c.Document,
		Phone:     c.Phone,
		Email:     c.Email,
		Active:    c.Active,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
	if c.BirthDate != nil {
		resp.BirthDate = c.BirthDate.Format("2006-01-02")
	}
	return resp
}

func NewClientListResponse(clients []*client.Client) []ClientResponse {
	out := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, NewClientResponse(c))
	}
	return out
}
