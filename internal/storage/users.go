// Package storage implements Postgres persistence for funnel users,
// runtime configuration, and screen content overrides.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"funnelbot/core/logger"
)

// ErrUserNotFound is returned when a lookup matches no user row.
var ErrUserNotFound = errors.New("user not found")

const uniqueViolation = "23505"

const userColumns = `id, telegram_id, group_ab, language, click_id, trader_id,
	is_subscribed, is_registered, has_deposit, is_platinum,
	access_notified, platinum_notified, total_deposits,
	last_bot_message_id, created_at`

// Segment names accepted by ListSegment.
const (
	SegmentAll        = "all"
	SegmentRegistered = "reg"
	SegmentDeposited  = "dep"
	SegmentStarted    = "start"
)

// Users is the repository for funnel participants.
type Users struct {
	db      *sqlx.DB
	clickID func() string
}

// NewUsers builds the user repository. Click IDs are 21-char nanoids,
// generated lazily on first referral link use.
func NewUsers(db *sqlx.DB) (*Users, error) {
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("nanoid generator: %w", err)
	}
	return &Users{db: db, clickID: gen}, nil
}

// GetOrCreate returns the user for the Telegram ID, inserting a fresh row on
// first contact. A concurrent insert losing the unique race falls back to a
// re-read, so two parallel /start updates never fail.
func (r *Users) GetOrCreate(ctx context.Context, telegramID int64) (*User, error) {
	u, err := r.ByTelegramID(ctx, telegramID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	start := time.Now()
	var created User
	err = r.db.GetContext(ctx, &created,
		`INSERT INTO users (telegram_id) VALUES ($1) RETURNING `+userColumns,
		telegramID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return r.ByTelegramID(ctx, telegramID)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.DB.Info("user created",
		slog.String("event", "user.create"),
		slog.Int64("user_id", telegramID),
		slog.Duration("duration", logger.Took(start)),
	)
	return &created, nil
}

// ByTelegramID fetches a user by Telegram ID.
func (r *Users) ByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return &u, nil
}

// ByClickID fetches a user by referral click ID.
func (r *Users) ByClickID(ctx context.Context, clickID string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE click_id = $1`, clickID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by click id: %w", err)
	}
	return &u, nil
}

// ByID fetches a user by internal row ID.
func (r *Users) ByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// EnsureClickID assigns a click ID if the user has none yet and returns the
// current value. The WHERE guard makes the assignment write-once even under
// concurrent callers.
func (r *Users) EnsureClickID(ctx context.Context, telegramID int64) (string, error) {
	id := r.clickID()
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET click_id = $1 WHERE telegram_id = $2 AND click_id IS NULL`,
		id, telegramID)
	if err != nil {
		return "", fmt.Errorf("ensure click id: %w", err)
	}
	u, err := r.ByTelegramID(ctx, telegramID)
	if err != nil {
		return "", err
	}
	if !u.ClickID.Valid {
		return "", fmt.Errorf("click id missing after assignment for user %d", telegramID)
	}
	return u.ClickID.String, nil
}

// SetLanguage stores the user's interface language.
func (r *Users) SetLanguage(ctx context.Context, telegramID int64, lang string) error {
	return r.exec(ctx, "set language",
		`UPDATE users SET language = $1 WHERE telegram_id = $2`, lang, telegramID)
}

// SetLastMessageID remembers the bot's latest funnel message in the chat so
// the next render can delete it.
func (r *Users) SetLastMessageID(ctx context.Context, telegramID int64, messageID int) error {
	return r.exec(ctx, "set last message id",
		`UPDATE users SET last_bot_message_id = $1 WHERE telegram_id = $2`,
		messageID, telegramID)
}

// SetSubscribed promotes the subscription milestone.
func (r *Users) SetSubscribed(ctx context.Context, telegramID int64) error {
	return r.exec(ctx, "set subscribed",
		`UPDATE users SET is_subscribed = TRUE WHERE telegram_id = $1`, telegramID)
}

// SetPlatinum promotes the platinum tier.
func (r *Users) SetPlatinum(ctx context.Context, telegramID int64) error {
	return r.exec(ctx, "set platinum",
		`UPDATE users SET is_platinum = TRUE WHERE telegram_id = $1`, telegramID)
}

// SetAccessNotified marks the one-time access congratulation as sent.
func (r *Users) SetAccessNotified(ctx context.Context, telegramID int64) error {
	return r.exec(ctx, "set access notified",
		`UPDATE users SET access_notified = TRUE WHERE telegram_id = $1`, telegramID)
}

// SetPlatinumNotified marks the one-time platinum congratulation as sent.
func (r *Users) SetPlatinumNotified(ctx context.Context, telegramID int64) error {
	return r.exec(ctx, "set platinum notified",
		`UPDATE users SET platinum_notified = TRUE WHERE telegram_id = $1`, telegramID)
}

// PostbackUpdate describes the state change a broker postback carries.
type PostbackUpdate struct {
	TraderID     string
	Registered   bool
	Amount       float64 // incoming deposit amount, 0 for registration events
	DepositEvent bool
	MinFirstDep  float64
}

// ApplyPostback applies a broker event atomically: trader ID is write-once,
// registration sets the flag, deposit events accumulate the running total and
// set has_deposit when the incoming amount alone clears the first-deposit
// minimum. Returns the user's state after the update.
func (r *Users) ApplyPostback(ctx context.Context, clickID string, upd PostbackUpdate) (*User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin postback tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var u User
	err = tx.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE click_id = $1 FOR UPDATE`, clickID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock user by click id: %w", err)
	}

	if upd.TraderID != "" && !u.TraderID.Valid {
		u.TraderID = sql.NullString{String: upd.TraderID, Valid: true}
	}
	if upd.Registered {
		u.IsRegistered = true
	}
	if upd.DepositEvent {
		if upd.Amount > 0 {
			u.TotalDeposits += upd.Amount
		}
		// first deposit is judged by the incoming amount, not the total:
		// a split deposit below the minimum does not open access
		if !u.HasDeposit && upd.Amount >= upd.MinFirstDep {
			u.HasDeposit = true
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET trader_id = $1, is_registered = $2, has_deposit = $3, total_deposits = $4
		 WHERE id = $5`,
		u.TraderID, u.IsRegistered, u.HasDeposit, u.TotalDeposits, u.ID)
	if err != nil {
		return nil, fmt.Errorf("apply postback: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit postback tx: %w", err)
	}
	return &u, nil
}

// ClearMilestone reverts a milestone for one user from the admin panel.
// Clearing registration or deposit also re-arms the access congratulation;
// clearing platinum re-arms the platinum one.
func (r *Users) ClearMilestone(ctx context.Context, telegramID int64, milestone string) error {
	var query string
	switch milestone {
	case "reg":
		query = `UPDATE users SET is_registered = FALSE, access_notified = FALSE WHERE telegram_id = $1`
	case "dep":
		query = `UPDATE users SET has_deposit = FALSE, total_deposits = 0, access_notified = FALSE WHERE telegram_id = $1`
	case "platinum":
		query = `UPDATE users SET is_platinum = FALSE, platinum_notified = FALSE WHERE telegram_id = $1`
	default:
		return fmt.Errorf("unknown milestone %q", milestone)
	}
	return r.exec(ctx, "clear milestone", query, telegramID)
}

// ListSegment returns the Telegram IDs of A-group users matching a broadcast
// segment: everyone, registered, deposited, or started-but-not-registered.
func (r *Users) ListSegment(ctx context.Context, segment string) ([]int64, error) {
	base := `SELECT telegram_id FROM users WHERE group_ab = 'A'`
	switch segment {
	case SegmentAll:
	case SegmentRegistered:
		base += ` AND is_registered`
	case SegmentDeposited:
		base += ` AND has_deposit`
	case SegmentStarted:
		base += ` AND NOT is_registered`
	default:
		return nil, fmt.Errorf("unknown segment %q", segment)
	}
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, base+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list segment %s: %w", segment, err)
	}
	return ids, nil
}

// PageSize is how many users one admin list page shows.
const PageSize = 20

// ListPage returns one page of users, newest first, with the total count.
func (r *Users) ListPage(ctx context.Context, page int) ([]User, int, error) {
	if page < 0 {
		page = 0
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM users`); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		PageSize, page*PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list users page %d: %w", page, err)
	}
	return users, total, nil
}

// FunnelStats aggregates A-group milestone counters.
func (r *Users) FunnelStats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.GetContext(ctx, &s, `
		SELECT count(*) AS total,
		       count(*) FILTER (WHERE is_subscribed) AS subscribed,
		       count(*) FILTER (WHERE is_registered) AS registered,
		       count(*) FILTER (WHERE has_deposit)   AS deposited,
		       count(*) FILTER (WHERE is_platinum)   AS platinum
		FROM users WHERE group_ab = 'A'`)
	if err != nil {
		return nil, fmt.Errorf("funnel stats: %w", err)
	}
	return &s, nil
}

func (r *Users) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
