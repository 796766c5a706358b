package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roofline-ai/roofline-backend/pkg/db/models"
)

// MonthKey formats a point in time as the YYYY-MM bucket key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DayKey formats a point in time as the YYYY-MM-DD daily key.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Repository handles usage period persistence. All increments are single
// statements so concurrent requests never lose updates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreate(ctx context.Context, userID, month string) (*models.UsagePeriod, error)
	Find(ctx context.Context, userID, month string) (*models.UsagePeriod, error)
	IncrementReports(ctx context.Context, userID, month string) (*models.UsagePeriod, error)
	IncrementWebSearches(ctx context.Context, userID, month string) (*models.UsagePeriod, error)
	IncrementChat(ctx context.Context, userID, month, day string, premium bool) (*models.UsagePeriod, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a usage repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetOrCreate inserts the (user, month) row if absent and reads it back.
// The insert uses ON CONFLICT DO NOTHING so concurrent first requests
// converge on the same row.
func (r *repository) GetOrCreate(ctx context.Context, userID, month string) (*models.UsagePeriod, error) {
	if userID == "" || month == "" {
		return nil, fmt.Errorf("userID and month are required")
	}

	row := models.UsagePeriod{
		ID:     uuid.NewString(),
		UserID: userID,
		Month:  month,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}},
			DoNothing: true,
		}).
		Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert usage period: %w", err)
	}

	return r.Find(ctx, userID, month)
}

func (r *repository) Find(ctx context.Context, userID, month string) (*models.UsagePeriod, error) {
	var period models.UsagePeriod
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND month = ?", userID, month).
		First(&period).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

func (r *repository) IncrementReports(ctx context.Context, userID, month string) (*models.UsagePeriod, error) {
	return r.increment(ctx, userID, month, "reports_generated = reports_generated + 1")
}

func (r *repository) IncrementWebSearches(ctx context.Context, userID, month string) (*models.UsagePeriod, error) {
	return r.increment(ctx, userID, month, "web_searches = web_searches + 1")
}

// IncrementChat bumps the monthly counter for the served model class and
// rolls the daily counter in the same statement: same-day requests add one,
// a new day resets to one. One UPDATE, so two racing requests both land.
// The updated row is read back and returned.
func (r *repository) IncrementChat(ctx context.Context, userID, month, day string, premium bool) (*models.UsagePeriod, error) {
	if _, err := r.ensure(ctx, userID, month); err != nil {
		return nil, err
	}

	column := "chat_messages_free"
	if premium {
		column = "chat_messages_premium"
	}

	res := r.db.WithContext(ctx).Exec(fmt.Sprintf(`
		UPDATE usage_periods
		SET %s = %s + 1,
		    daily_chat_count = CASE WHEN last_chat_date = ? THEN daily_chat_count + 1 ELSE 1 END,
		    last_chat_date = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND month = ?`, column, column),
		day, day, userID, month)
	if res.Error != nil {
		return nil, fmt.Errorf("increment chat usage: %w", res.Error)
	}
	return r.updatedRow(ctx, userID, month, res.RowsAffected)
}

func (r *repository) increment(ctx context.Context, userID, month, setClause string) (*models.UsagePeriod, error) {
	if _, err := r.ensure(ctx, userID, month); err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).Exec(fmt.Sprintf(`
		UPDATE usage_periods
		SET %s,
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND month = ?`, setClause),
		userID, month)
	if res.Error != nil {
		return nil, fmt.Errorf("increment usage: %w", res.Error)
	}
	return r.updatedRow(ctx, userID, month, res.RowsAffected)
}

func (r *repository) updatedRow(ctx context.Context, userID, month string, rowsAffected int64) (*models.UsagePeriod, error) {
	if rowsAffected == 0 {
		return nil, fmt.Errorf("usage period missing for user %s month %s", userID, month)
	}
	period, err := r.Find(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("read back usage period: %w", err)
	}
	if period == nil {
		return nil, fmt.Errorf("usage period missing for user %s month %s", userID, month)
	}
	return period, nil
}

func (r *repository) ensure(ctx context.Context, userID, month string) (*models.UsagePeriod, error) {
	period, err := r.GetOrCreate(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, fmt.Errorf("usage period missing for user %s month %s", userID, month)
	}
	return period, nil
}
