// Package repository persists inquiries through GORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"inquirydesk/internal/domain"
	"inquirydesk/internal/metrics"
	apperrors "inquirydesk/pkg/errors"
)

// MsgInquiryNotFound is the NotFound message for a single record lookup.
const MsgInquiryNotFound = "Inquiry not found"

// summaryColumns are the columns returned by list pages.
var summaryColumns = []string{
	"id", "full_name", "phone_number", "date_of_birth",
	"gender", "email", "reference", "created_at",
}

// InquiryRepository is the storage contract the services depend on.
type InquiryRepository interface {
	Count(ctx context.Context) (int64, error)
	// FindPage returns summary columns only, newest first.
	FindPage(ctx context.Context, skip, take int) ([]domain.Inquiry, error)
	FindByID(ctx context.Context, id int64) (*domain.Inquiry, error)
	Create(ctx context.Context, inquiry *domain.Inquiry) error
	// Update writes only the given columns. A nil value stores NULL.
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
	// CreatedBetween returns the creation times within [start, end].
	CreatedBetween(ctx context.Context, start, end time.Time) ([]time.Time, error)
}

// GormRepository implements InquiryRepository on a *gorm.DB.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository on db
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func observe(op string, start time.Time, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	metrics.RecordDBQuery(op, time.Since(start), err)
}

func (r *GormRepository) Count(ctx context.Context) (total int64, err error) {
	defer func(start time.Time) { observe("count", start, err) }(time.Now())

	if err = r.db.WithContext(ctx).Model(&domain.Inquiry{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count inquiries: %w", err)
	}
	return total, nil
}

func (r *GormRepository) FindPage(ctx context.Context, skip, take int) (rows []domain.Inquiry, err error) {
	defer func(start time.Time) { observe("find_page", start, err) }(time.Now())

	err = r.db.WithContext(ctx).
		Select(summaryColumns).
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(take).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return rows, nil
}

func (r *GormRepository) FindByID(ctx context.Context, id int64) (_ *domain.Inquiry, err error) {
	defer func(start time.Time) { observe("find_by_id", start, err) }(time.Now())

	var inquiry domain.Inquiry
	err = r.db.WithContext(ctx).First(&inquiry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound, MsgInquiryNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get inquiry %d: %w", id, err)
	}
	return &inquiry, nil
}

func (r *GormRepository) Create(ctx context.Context, inquiry *domain.Inquiry) (err error) {
	defer func(start time.Time) { observe("create", start, err) }(time.Now())

	if err = r.db.WithContext(ctx).Create(inquiry).Error; err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

func (r *GormRepository) Update(ctx context.Context, id int64, fields map[string]any) (err error) {
	if len(fields) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("update", start, err) }(time.Now())

	res := r.db.WithContext(ctx).Model(&domain.Inquiry{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update inquiry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrCodeNotFound, MsgInquiryNotFound)
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete", start, err) }(time.Now())

	res := r.db.WithContext(ctx).Delete(&domain.Inquiry{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete inquiry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrCodeNotFound, MsgInquiryNotFound)
	}
	return nil
}

func (r *GormRepository) CreatedBetween(ctx context.Context, start, end time.Time) (times []time.Time, err error) {
	defer func(begin time.Time) { observe("created_between", begin, err) }(time.Now())

	err = r.db.WithContext(ctx).
		Model(&domain.Inquiry{}).
		Where("created_at >= ? AND created_at <= ?", start.UTC(), end.UTC()).
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, fmt.Errorf("load creation times: %w", err)
	}
	return times, nil
}
