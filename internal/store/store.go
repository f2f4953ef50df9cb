package store

import (
	"context"
	"errors"
	"time"

	"CampusSOS/internal/feed"
	"CampusSOS/internal/models"
	apperrors "CampusSOS/pkg/errors"
	"CampusSOS/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AlertStore is the record-store contract the lifecycle manager depends
// on. Every successful write is echoed on the change feed.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	ListAlerts(ctx context.Context, limit int) ([]models.Alert, error)
	ActiveAlerts(ctx context.Context) ([]models.Alert, error)
	GetAlert(ctx context.Context, id uint) (*models.Alert, error)
	UpdateAlertStatus(ctx context.Context, id uint, status string, resolvedBy *uint) error
	AddLocationUpdate(ctx context.Context, alertID uint, lat, lon float64) error
	LocationHistory(ctx context.Context, alertID uint) ([]models.LocationUpdate, error)
}

// UserStore resolves identities for the authentication endpoints.
type UserStore interface {
	FindStudent(ctx context.Context, studentID string) (*models.User, error)
	FindAdmin(ctx context.Context, email string) (*models.User, error)
}

// Store is the gorm implementation of both contracts.
type Store struct {
	db  *gorm.DB
	pub feed.Publisher
}

func New(db *gorm.DB, pub feed.Publisher) *Store {
	return &Store{db: db, pub: pub}
}

// Migrate creates the three tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Alert{}, &models.LocationUpdate{})
}

// CreateAlert inserts a new alert in status active and publishes the
// INSERT event. The store assigns the id.
func (s *Store) CreateAlert(ctx context.Context, alert *models.Alert) error {
	alert.Status = models.StatusActive
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "create alert failed")
	}

	snapshot := *alert
	s.pub.Publish(feed.Event{Type: feed.Insert, Table: feed.TableAlerts, New: &snapshot})
	return nil
}

// ListAlerts returns the most recent alerts, newest first.
func (s *Store) ListAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "list alerts failed")
	}
	return alerts, nil
}

func (s *Store) ActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Order("created_at desc").
		Find(&alerts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "list active alerts failed")
	}
	return alerts, nil
}

func (s *Store) GetAlert(ctx context.Context, id uint) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.WithContext(ctx).First(&alert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WithCodef(apperrors.CodeNotFound, "alert %d not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "get alert failed")
	}
	return &alert, nil
}

// UpdateAlertStatus applies a status transition. The resolution timestamp
// is written only when the target status is resolved. The fresh row is
// published as an UPDATE event; callers converge through that event, not
// through this call's return.
func (s *Store) UpdateAlertStatus(ctx context.Context, id uint, status string, resolvedBy *uint) error {
	updates := map[string]interface{}{
		"status":      status,
		"resolved_by": resolvedBy,
	}
	if status == models.StatusResolved {
		updates["resolved_at"] = time.Now()
	}

	res := s.db.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, res.Error, "update alert failed")
	}
	if res.RowsAffected == 0 {
		return apperrors.WithCodef(apperrors.CodeNotFound, "alert %d not found", id)
	}

	s.publishAlertUpdate(ctx, id)
	return nil
}

// AddLocationUpdate appends a position sample and refreshes the alert's
// cached coordinates in one transaction, then publishes both events.
func (s *Store) AddLocationUpdate(ctx context.Context, alertID uint, lat, lon float64) error {
	loc := models.LocationUpdate{AlertID: alertID, Latitude: lat, Longitude: lon}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&loc).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Alert{}).Where("id = ?", alertID).
			Updates(map[string]interface{}{"latitude": lat, "longitude": lon})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.WithCodef(apperrors.CodeNotFound, "alert %d not found", alertID)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "add location update failed")
	}

	s.pub.Publish(feed.Event{Type: feed.Insert, Table: feed.TableLocationUpdates, New: &loc})
	s.publishAlertUpdate(ctx, alertID)
	return nil
}

// LocationHistory returns the movement trail, oldest first.
func (s *Store) LocationHistory(ctx context.Context, alertID uint) ([]models.LocationUpdate, error) {
	var history []models.LocationUpdate
	err := s.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("created_at asc").
		Find(&history).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "location history failed")
	}
	return history, nil
}

func (s *Store) FindStudent(ctx context.Context, studentID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND user_type = ?", studentID, models.UserTypeStudent).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WithCode(apperrors.CodeNotFound, "student not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "find student failed")
	}
	return &user, nil
}

func (s *Store) FindAdmin(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND user_type = ?", email, models.UserTypeAdmin).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WithCode(apperrors.CodeNotFound, "admin not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, err, "find admin failed")
	}
	return &user, nil
}

// publishAlertUpdate reads the row back and emits it as a full snapshot.
// A failed write never reaches this point, so local views stay untouched
// on failure.
func (s *Store) publishAlertUpdate(ctx context.Context, id uint) {
	var alert models.Alert
	if err := s.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		logger.Warn("could not read back alert for feed publish",
			zap.Uint("alert_id", id), zap.Error(err))
		return
	}
	s.pub.Publish(feed.Event{Type: feed.Update, Table: feed.TableAlerts, New: &alert})
}
