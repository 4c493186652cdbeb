package model

import (
	"strings"
	"time"
)

// RegistrationStatus is the state of a workshop registration
type RegistrationStatus string

// Known registration states
const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether the status is one of the defined constants.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationCancelled:
		return true
	default:
		return false
	}
}

// ErrWorkshopFull is returned when a workshop has no free seats left
var ErrWorkshopFull = ValidationError("workshop is full")

// WorkshopRegistration records that a user signed up for a workshop. There is
// at most one row per user and workshop; registering again after a
// cancellation reactivates that row.
type WorkshopRegistration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	WorkshopID uint     `gorm:"uniqueIndex:idx_registration_workshop_user;not null" json:"workshop_id"`
	Workshop   Workshop `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID     uint     `gorm:"uniqueIndex:idx_registration_workshop_user;not null;index" json:"user_id"`
	User       User     `json:"-"`

	Name   string             `json:"name"`
	Phone  string             `gorm:"size:32" json:"phone"`
	Email  string             `json:"email"`
	Note   string             `json:"note"`
	Status RegistrationStatus `gorm:"size:16;not null;default:pending" json:"status"`
}

// NewRegistration is the input for registering to a workshop
type NewRegistration struct {
	WorkshopID uint   `json:"workshop_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Note       string `json:"note"`
}

// Validate checks the required fields
func (r *NewRegistration) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.WorkshopID == 0 {
		return ValidationError("workshop_id is required")
	}
	if r.Name == "" || r.Phone == "" {
		return ValidationError("name and phone are required")
	}
	return nil
}

// RegistrationsStore abstracts workshop registrations
type RegistrationsStore interface {
	// Register signs the user up. Registering twice yields an
	// AlreadyExistsError, a full workshop ErrWorkshopFull, and an unknown or
	// unpublished workshop a NotFoundError.
	Register(userID uint, r NewRegistration) (*WorkshopRegistration, error)
	ListByUser(userID uint) ([]WorkshopRegistration, error)
	// List returns all registrations, limited to one workshop when workshopID is not 0
	List(workshopID uint) ([]WorkshopRegistration, error)
	SetStatus(id uint, status RegistrationStatus) (*WorkshopRegistration, error)
	Delete(id uint) error
}
