package handler

import (
	"encoding/json"
	"time"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// DomainChangeConfirmation is the phrase a caller must echo back when it
// sends a verification value with a domain change.
const DomainChangeConfirmation = "confirm domain change"

// updateDomainRequest is the PUT body for a domain change. The editing UI
// sends the new domain as a bare JSON string; API clients may send an object
// that also carries the confirmation phrase.
type updateDomainRequest struct {
	Domain       string  `json:"domain" validate:"required,domain"`
	Verification *string `json:"verification,omitempty"`
}

func (r *updateDomainRequest) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*r = updateDomainRequest{Domain: bare}
		return nil
	}

	type plain updateDomainRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = updateDomainRequest(p)
	return nil
}

type createProjectRequest struct {
	Slug   string `json:"slug" validate:"required,slug"`
	Name   string `json:"name"`
	Domain string `json:"domain" validate:"required,domain"`
}

type projectResponse struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	return projectResponse{
		Slug:      p.Slug,
		Name:      p.Name,
		Domain:    p.Domain,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type repairResponse struct {
	Repaired int `json:"repaired"`
}
