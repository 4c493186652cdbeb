package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/danesh-portal/danesh/storage/model"
)

// RegistrationsStorage implements model.RegistrationsStore using GORM
type RegistrationsStorage struct {
	db *gorm.DB
}

// RegistrationsStorage returns a RegistrationsStorage
func (s *Storage) RegistrationsStorage() *RegistrationsStorage {
	return &RegistrationsStorage{db: s.db}
}

// Register signs up the user for a published workshop, honoring its capacity
func (s *RegistrationsStorage) Register(userID uint, r model.NewRegistration) (*model.WorkshopRegistration, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	reg := &model.WorkshopRegistration{
		WorkshopID: r.WorkshopID,
		UserID:     userID,
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		Note:       r.Note,
		Status:     model.RegistrationPending,
	}
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var w model.Workshop
			if err := tx.Where("status = ?", model.StatusPublished).First(&w, r.WorkshopID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("workshop not found: %d", r.WorkshopID)
				}
				return err
			}
			var existing model.WorkshopRegistration
			err := tx.Where("workshop_id = ? AND user_id = ?", w.ID, userID).Take(&existing).Error
			found := err == nil
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if found && existing.Status != model.RegistrationCancelled {
				return model.AlreadyExistsError("already registered for this workshop")
			}
			if err := checkCapacity(tx, &w); err != nil {
				return err
			}
			if found {
				// a cancelled registration is reactivated in place
				if err := tx.Model(&existing).Select("Name", "Phone", "Email", "Note", "Status").
					Updates(
						&model.WorkshopRegistration{
							Name:   reg.Name,
							Phone:  reg.Phone,
							Email:  reg.Email,
							Note:   reg.Note,
							Status: model.RegistrationPending,
						},
					).Error; err != nil {
					return err
				}
				existing.Name, existing.Phone, existing.Email, existing.Note = reg.Name, reg.Phone, reg.Email, reg.Note
				existing.Status = model.RegistrationPending
				reg = &existing
				return nil
			}
			if err := tx.Omit("Workshop", "User").Create(reg).Error; err != nil {
				if isUniqueConstraintError(err) {
					return model.AlreadyExistsError("already registered for this workshop")
				}
				return err
			}
			return nil
		},
	)
	if err != nil {
		var notFound model.NotFoundError
		var exists model.AlreadyExistsError
		var invalid model.ValidationError
		if errors.As(err, &notFound) || errors.As(err, &exists) || errors.As(err, &invalid) {
			return nil, err
		}
		return nil, errors.Wrap(err, "registrations: register failed")
	}
	return reg, nil
}

// checkCapacity returns model.ErrWorkshopFull when all seats are taken by
// registrations that are not cancelled
func checkCapacity(tx *gorm.DB, w *model.Workshop) error {
	if w.Capacity <= 0 {
		return nil
	}
	var taken int64
	if err := tx.Model(&model.WorkshopRegistration{}).
		Where("workshop_id = ? AND status <> ?", w.ID, model.RegistrationCancelled).
		Count(&taken).Error; err != nil {
		return err
	}
	if taken >= int64(w.Capacity) {
		return model.ErrWorkshopFull
	}
	return nil
}

// ListByUser returns the registrations of one user
func (s *RegistrationsStorage) ListByUser(userID uint) ([]model.WorkshopRegistration, error) {
	items := make([]model.WorkshopRegistration, 0)
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "registrations: list failed")
	}
	return items, nil
}

// List returns all registrations, optionally limited to one workshop
func (s *RegistrationsStorage) List(workshopID uint) ([]model.WorkshopRegistration, error) {
	tx := s.db.Order("created_at DESC")
	if workshopID != 0 {
		tx = tx.Where("workshop_id = ?", workshopID)
	}
	items := make([]model.WorkshopRegistration, 0)
	if err := tx.Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "registrations: list failed")
	}
	return items, nil
}

// SetStatus changes the status of a registration
func (s *RegistrationsStorage) SetStatus(id uint, status model.RegistrationStatus) (*model.WorkshopRegistration, error) {
	if !status.Valid() {
		return nil, model.ValidationError("invalid registration status")
	}
	var reg model.WorkshopRegistration
	if err := s.db.First(&reg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("registration not found: %d", id)
		}
		return nil, errors.Wrap(err, "registrations: get failed")
	}
	if err := s.db.Model(&reg).Update("status", status).Error; err != nil {
		return nil, errors.Wrap(err, "registrations: update failed")
	}
	return &reg, nil
}

// Delete removes a registration
func (s *RegistrationsStorage) Delete(id uint) error {
	res := s.db.Delete(&model.WorkshopRegistration{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "registrations: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("registration not found: %d", id)
	}
	return nil
}
