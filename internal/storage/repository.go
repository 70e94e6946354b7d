package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subtrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const subscriptionColumns = `id, user_id, name, description, category_id,
	first_payment_date, start_date, end_date, duration, billing_cycle,
	cost_cents, recurring, status, date_canceled, reminder_days,
	last_reminded, created_at, updated_at`

// CreateSubscription inserts a fully-populated subscription row.
func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Name, s.Description, s.CategoryID,
		s.FirstPayment.String(), s.StartDate.String(), nullableDate(s.EndDate),
		string(s.Duration), string(s.BillingCycle),
		s.Cost.Cents, boolToInt(s.Recurring), string(s.Status),
		nullableDate(s.DateCanceled), s.ReminderDays, nullableDate(s.LastReminded),
		s.CreatedAt.UTC().Format(time.RFC3339), s.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved",
		"id", s.ID,
		"user_id", s.UserID,
		"name", s.Name,
		"cost_cents", s.Cost.Cents,
		"billing_cycle", s.BillingCycle)

	return nil
}

// GetSubscription returns one subscription scoped to the given user.
func (r *SQLiteRepository) GetSubscription(ctx context.Context, userID, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = ? AND user_id = ?`, id, userID)

	s, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

// ListSubscriptions returns all of a user's subscriptions, soonest
// period end first; open-ended rows sort last.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = ?
		ORDER BY end_date IS NULL, end_date ASC, name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// ListActiveSubscriptions returns active subscriptions across all users,
// used by the reminder worker. Limit bounds a single pass.
func (r *SQLiteRepository) ListActiveSubscriptions(ctx context.Context, limit int) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE status = ?
		ORDER BY end_date IS NULL, end_date ASC
		LIMIT ?`, string(core.StatusActive), limit)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// UpdateSubscription rewrites the mutable fields of a subscription,
// scoped to its owner.
func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, s core.Subscription) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET name = ?, description = ?, category_id = ?,
			first_payment_date = ?, start_date = ?, end_date = ?,
			duration = ?, billing_cycle = ?, cost_cents = ?, recurring = ?,
			status = ?, reminder_days = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		s.Name, s.Description, s.CategoryID,
		s.FirstPayment.String(), s.StartDate.String(), nullableDate(s.EndDate),
		string(s.Duration), string(s.BillingCycle), s.Cost.Cents, boolToInt(s.Recurring),
		string(s.Status), s.ReminderDays, s.UpdatedAt.UTC().Format(time.RFC3339),
		s.ID, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res)
}

// UpdatePeriod moves a subscription to a new billing period and clears
// the reminder marker so the new period gets its own reminder.
func (r *SQLiteRepository) UpdatePeriod(ctx context.Context, id string, p core.Period) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET start_date = ?, end_date = ?, last_reminded = NULL, updated_at = ?
		WHERE id = ?`,
		p.Start.String(), p.End.String(), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return requireRow(res)
}

// CancelSubscription marks a subscription canceled, keeping the row for
// history.
func (r *SQLiteRepository) CancelSubscription(ctx context.Context, userID, id string, on core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = ?, date_canceled = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		string(core.StatusCanceled), on.String(), time.Now().UTC().Format(time.RFC3339), id, userID)
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	return requireRow(res)
}

// MarkExpired flips a subscription to expired once its term has passed.
func (r *SQLiteRepository) MarkExpired(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = ?, updated_at = ?
		WHERE id = ?`,
		string(core.StatusExpired), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark expired: %w", err)
	}
	return requireRow(res)
}

// MarkReminded records that a reminder went out for the current period.
func (r *SQLiteRepository) MarkReminded(ctx context.Context, id string, on core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET last_reminded = ?, updated_at = ?
		WHERE id = ?`,
		on.String(), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return requireRow(res)
}

// DeleteSubscription removes a subscription row entirely.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res)
}

// ListCategories returns the category lookup table ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var (
		s                                 core.Subscription
		firstPayment, startDate           string
		endDate, dateCanceled, lastRemind sql.NullString
		duration, cycle, status           string
		recurring                         int
		createdAt, updatedAt              string
	)

	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Description, &s.CategoryID,
		&firstPayment, &startDate, &endDate, &duration, &cycle,
		&s.Cost.Cents, &recurring, &status, &dateCanceled, &s.ReminderDays,
		&lastRemind, &createdAt, &updatedAt,
	)
	if err != nil {
		return core.Subscription{}, err
	}

	if s.FirstPayment, err = core.ParseDate(firstPayment); err != nil {
		return core.Subscription{}, fmt.Errorf("first payment date: %w", err)
	}
	if s.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.Subscription{}, fmt.Errorf("start date: %w", err)
	}
	if s.EndDate, err = core.ParseDate(endDate.String); err != nil {
		return core.Subscription{}, fmt.Errorf("end date: %w", err)
	}
	if s.DateCanceled, err = core.ParseDate(dateCanceled.String); err != nil {
		return core.Subscription{}, fmt.Errorf("date canceled: %w", err)
	}
	if s.LastReminded, err = core.ParseDate(lastRemind.String); err != nil {
		return core.Subscription{}, fmt.Errorf("last reminded: %w", err)
	}

	s.Duration = core.FixedDuration(duration)
	s.BillingCycle = core.BillingCycle(cycle)
	s.Recurring = recurring != 0
	s.Status = core.Status(status)

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		s.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		s.UpdatedAt = t
	}

	return s, nil
}

func collectSubscriptions(rows *sql.Rows) ([]core.Subscription, error) {
	var out []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}

func nullableDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
