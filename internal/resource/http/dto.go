package http

import (
	"time"

	"github.com/tamagocat/office-booking-backend/internal/pkg/request"
	"github.com/tamagocat/office-booking-backend/internal/resource"
)

// ResourceTag is a brief representation of a resource.
type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Response struct {
	ID           string         `json:"id"`
	ResourceType string         `json:"resource_type"`
	Name         string         `json:"name"`
	IsActive     bool           `json:"is_active"`
	Properties   map[string]any `json:"properties"`
	HasPhoto     bool           `json:"has_photo"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func NewResponse(r *resource.Resource) Response {
	return Response{
		ID:           r.ID,
		ResourceType: string(r.ResourceType),
		Name:         r.Name,
		IsActive:     r.IsActive,
		Properties:   r.Properties,
		HasPhoto:     r.PhotoPath != nil,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ListRequest defines query parameters for listing resources.
type ListRequest struct {
	request.ListParams
	ResourceType string `form:"resource_type" binding:"omitempty,oneof=meeting_room phone laptop turf"`
	IsActive     *bool  `form:"is_active"`
}

// Validate performs custom validation for ListRequest.
func (r *ListRequest) Validate() error {
	return nil
}

type CreateBody struct {
	Name         string         `json:"name" binding:"required"`
	ResourceType string         `json:"resource_type" binding:"required,oneof=meeting_room phone laptop turf"`
	Properties   map[string]any `json:"properties"`
}

// Validate performs custom validation for CreateBody.
func (r *CreateBody) Validate() error {
	return nil
}

type UpdateBody struct {
	Name       *string        `json:"name"`
	IsActive   *bool          `json:"is_active"`
	Properties map[string]any `json:"properties"`
}

// Validate performs custom validation for UpdateBody.
func (r *UpdateBody) Validate() error {
	return nil
}
