package resource

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrInvalidType  = errors.New("invalid resource_type")
	ErrHasBookings  = errors.New("resource has bookings and cannot be deleted; deactivate it instead")
	ErrNoPhoto      = errors.New("resource has no photo")
	ErrNotAnImage   = errors.New("uploaded file is not an image")
	ErrPhotoTooBig  = errors.New("uploaded photo exceeds the size limit")
)

// Type is the closed enumeration of bookable resource kinds.
type Type string

const (
	TypeMeetingRoom Type = "meeting_room"
	TypePhone       Type = "phone"
	TypeLaptop      Type = "laptop"
	TypeTurf        Type = "turf"
)

// ValidTypes lists every accepted resource type.
var ValidTypes = []Type{TypeMeetingRoom, TypePhone, TypeLaptop, TypeTurf}

// IsValid reports whether t is a known resource type.
func (t Type) IsValid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Resource represents a bookable unit (e.g., Room 101, Laptop #3).
// Properties is an opaque type-specific attribute bag (capacity, brand,
// OS, ...) maintained by admins and not interpreted by the booking engine.
type Resource struct {
	ID           string
	ResourceType Type
	Name         string
	IsActive     bool
	Properties   map[string]any
	PhotoPath    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	ResourceType string
	IsActive     *bool
	Page         int
	PageSize     int
}
