package storage

import (
	"database/sql"
	"time"
)

// User is a funnel participant keyed by Telegram ID. Milestone flags are
// monotonic: the funnel only ever sets them, admins may clear them explicitly.
type User struct {
	ID               int64           `db:"id"`
	TelegramID       int64           `db:"telegram_id"`
	GroupAB          string          `db:"group_ab"`
	Language         sql.NullString  `db:"language"`
	ClickID          sql.NullString  `db:"click_id"`
	TraderID         sql.NullString  `db:"trader_id"`
	IsSubscribed     bool            `db:"is_subscribed"`
	IsRegistered     bool            `db:"is_registered"`
	HasDeposit       bool            `db:"has_deposit"`
	IsPlatinum       bool            `db:"is_platinum"`
	AccessNotified   bool            `db:"access_notified"`
	PlatinumNotified bool            `db:"platinum_notified"`
	TotalDeposits    float64         `db:"total_deposits"`
	LastBotMessageID sql.NullInt64   `db:"last_bot_message_id"`
	CreatedAt        time.Time       `db:"created_at"`
}

// Lang returns the user's chosen language, or empty if none was picked yet.
func (u *User) Lang() string {
	if u.Language.Valid {
		return u.Language.String
	}
	return ""
}

// HasFullAccess reports whether every funnel milestone is reached.
func (u *User) HasFullAccess() bool {
	return u.IsSubscribed && u.IsRegistered && u.HasDeposit
}

// Override is an admin-edited replacement for a built-in screen text.
// Nil fields fall through to the built-in value.
type Override struct {
	Lang   string  `db:"lang"`
	Screen string  `db:"screen"`
	Title  *string `db:"title"`
	Body   *string `db:"body"`
}

// Stats aggregates A-group funnel counters for the admin panel.
type Stats struct {
	Total      int `db:"total"`
	Subscribed int `db:"subscribed"`
	Registered int `db:"registered"`
	Deposited  int `db:"deposited"`
	Platinum   int `db:"platinum"`
}
