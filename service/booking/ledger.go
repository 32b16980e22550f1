package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fitsync/schedule-service/cmd/models"
	"gorm.io/gorm"
)

var (
	ErrSlotConflict    = errors.New("time slot already booked")
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidLimit    = errors.New("limit must be a positive integer")
)

// Ledger is the admission-control layer for one-on-one bookings. All writes
// that could race with a concurrent creator for the same trainer and date go
// through a transaction-scoped advisory lock, so the overlap check and the
// insert behave as a single atomic unit.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// ListFilter narrows List results. Empty ClientID/TrainerID means
// unrestricted on that dimension.
type ListFilter struct {
	ClientID  string
	TrainerID string
	Status    string
	Page      int
	Limit     int
}

// Create inserts a new scheduled booking unless a non-cancelled booking for
// the same trainer and date overlaps the requested range.
func (l *Ledger) Create(ctx context.Context, b *models.Booking) error {
	if err := b.Range().Validate(); err != nil {
		return err
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize creators contending for the same trainer+date. The lock
		// is released automatically when the transaction ends.
		lockKey := fmt.Sprintf("%s:%s", b.TrainerID, b.BookingDate.Format("2006-01-02"))
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", lockKey).Error; err != nil {
			return err
		}

		var count int64
		err := tx.Model(&models.Booking{}).
			Where("trainer_id = ? AND booking_date = ? AND status <> ? AND start_time < ? AND end_time > ?",
				b.TrainerID, b.BookingDate, models.BookingStatusCancelled, b.EndTime, b.StartTime).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotConflict
		}

		b.Status = models.BookingStatusScheduled
		return tx.Create(b).Error
	})
}

// Cancel marks a booking cancelled and records the reason. It is not
// idempotent: cancelling an already-cancelled booking re-applies the update
// and overwrites the stored reason.
func (l *Ledger) Cancel(ctx context.Context, bookingID string, reason *string) (*models.Booking, error) {
	now := time.Now()
	result := l.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(map[string]interface{}{
			"status":              models.BookingStatusCancelled,
			"cancelled_at":        now,
			"cancellation_reason": reason,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrBookingNotFound
	}

	var b models.Booking
	if err := l.db.WithContext(ctx).First(&b, "id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// Complete marks a booking completed and returns it along with the session
// duration in whole minutes.
func (l *Ledger) Complete(ctx context.Context, bookingID string) (*models.Booking, int, error) {
	result := l.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("status", models.BookingStatusCompleted)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, 0, ErrBookingNotFound
	}

	var b models.Booking
	if err := l.db.WithContext(ctx).First(&b, "id = ?", bookingID).Error; err != nil {
		return nil, 0, err
	}

	duration := int(math.Round(b.EndTime.Sub(b.StartTime).Minutes()))
	return &b, duration, nil
}

func (l *Ledger) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	var b models.Booking
	if err := l.db.WithContext(ctx).First(&b, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns one page of bookings plus the unpaginated total.
func (l *Ledger) List(ctx context.Context, filter ListFilter) ([]models.Booking, int64, error) {
	if filter.Limit <= 0 {
		return nil, 0, ErrInvalidLimit
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	query := l.db.WithContext(ctx).Model(&models.Booking{})
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.TrainerID != "" {
		query = query.Where("trainer_id = ?", filter.TrainerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []models.Booking
	err := query.Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Order("booking_date DESC, start_time").Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
