package models

import "time"

// UsagePeriod is the per-user, per-month bucket of consumption counters.
// One row per (user_id, month), month formatted YYYY-MM. Rows are created
// lazily on first use, superseded by the next month's row, never deleted.
//
// DailyChatCount is only meaningful while LastChatDate equals the current
// day; a stale date means the effective daily count is zero.
type UsagePeriod struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	UserID              string    `gorm:"column:user_id;not null;uniqueIndex:idx_usage_user_month,priority:1"`
	Month               string    `gorm:"column:month;not null;uniqueIndex:idx_usage_user_month,priority:2"`
	ReportsGenerated    int       `gorm:"column:reports_generated;not null;default:0"`
	ChatMessagesPremium int       `gorm:"column:chat_messages_premium;not null;default:0"`
	ChatMessagesFree    int       `gorm:"column:chat_messages_free;not null;default:0"`
	WebSearches         int       `gorm:"column:web_searches;not null;default:0"`
	DailyChatCount      int       `gorm:"column:daily_chat_count;not null;default:0"`
	VoiceMinutesUsed    int       `gorm:"column:voice_minutes_used;not null;default:0"`
	SMSMessagesSent     int       `gorm:"column:sms_messages_sent;not null;default:0"`
	LastChatDate        *string   `gorm:"column:last_chat_date"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name regardless of gorm pluralization settings.
func (UsagePeriod) TableName() string {
	return "usage_periods"
}
