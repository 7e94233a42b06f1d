// Package storage persists expenses, tags and settings in SQLite. It is the
// single mutable resource in the system; every derived view is recomputed
// from what lives here.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Filter is the predicate surface of expense queries. Zero-value fields are
// not applied; set fields compose with logical AND.
type Filter struct {
	// Window restricts by expense date when non-nil.
	Window *core.Window
	// NameContains matches case-insensitively anywhere in the name.
	NameContains string
	// TagID restricts to expenses carrying exactly this tag.
	TagID string
	// Limit and Offset page through results. Limit <= 0 means no limit.
	Limit  int
	Offset int
}

// Repository is a SQLite-backed store for expenses, tags and settings.
type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

// New opens the database at dbPath (":memory:" for tests) and applies
// migrations.
func New(dbPath string, logger *log.Logger) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Repository{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertExpense stores a new expense. The caller assigns the ID.
func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, name, date, value_cents, image, tag_id) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Date, e.Value.Cents, e.Image, nullableID(e.TagID),
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	r.logger.InfoContext(ctx, "Expense saved",
		log.FieldExpenseID, e.ID,
		log.FieldValueCents, e.Value.Cents)
	return nil
}

// UpdateExpense rewrites every mutable field of an existing expense.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET name = ?, date = ?, value_cents = ?, image = ?, tag_id = ? WHERE id = ?`,
		e.Name, e.Date, e.Value.Cents, e.Image, nullableID(e.TagID), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

// DeleteExpense removes one expense by ID.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// DeleteAllExpenses wipes the expense table. Used by the bulk-delete flow.
func (r *Repository) DeleteAllExpenses(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("delete all expenses: %w", err)
	}
	return nil
}

// GetExpense fetches one expense by ID.
func (r *Repository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, date, value_cents, image, tag_id FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// FetchExpenses returns expenses matching the filter, newest first. Ties on
// the date are broken by insertion order so repeated calls against an
// unchanged store return identical pages.
func (r *Repository) FetchExpenses(ctx context.Context, f Filter) ([]core.Expense, error) {
	where, args := buildWhere(f)

	query := `SELECT id, name, date, value_cents, image, tag_id FROM expenses` +
		where + ` ORDER BY date DESC, rowid ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// CountExpenses counts expenses matching the filter, ignoring paging.
func (r *Repository) CountExpenses(ctx context.Context, f Filter) (int, error) {
	f.Limit, f.Offset = 0, 0
	where, args := buildWhere(f)

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// InsertTag stores a new tag. The caller assigns the ID.
func (r *Repository) InsertTag(ctx context.Context, t core.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, color, icon) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.Color, t.Icon,
	)
	if err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

// UpdateTag rewrites a tag's mutable fields.
func (r *Repository) UpdateTag(ctx context.Context, t core.Tag) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ?, icon = ? WHERE id = ?`,
		t.Name, t.Color, t.Icon, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return requireRow(res)
}

// GetTag fetches one tag by ID.
func (r *Repository) GetTag(ctx context.Context, id string) (core.Tag, error) {
	var t core.Tag
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, icon FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.Icon)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tag{}, ErrNotFound
	}
	if err != nil {
		return core.Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

// ListTags returns all tags in creation order.
func (r *Repository) ListTags(ctx context.Context) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, icon FROM tags ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Icon); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeleteTag removes a tag and nullifies the back-reference on every expense
// carrying it, in one transaction. No expense ever observes a dangling
// reference through this store.
func (r *Repository) DeleteTag(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tag delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE expenses SET tag_id = NULL WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("nullify tag references: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tag delete: %w", err)
	}

	r.logger.InfoContext(ctx, "Tag deleted, references nullified", log.FieldTagID, id)
	return nil
}

// CountTags counts all tags.
func (r *Repository) CountTags(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return n, nil
}

// Settings keys for the persisted budget preferences.
const (
	settingBudgetLimit  = "budget_limit_cents"
	settingBudgetPeriod = "budget_period"
	settingCurrency     = "currency"
)

// Defaults applied when a setting has never been written.
const (
	defaultBudgetLimitCents = 10000
	defaultCurrency         = "PLN"
)

// GetBudgetConfig loads the persisted budget preferences, applying defaults
// for keys never written.
func (r *Repository) GetBudgetConfig(ctx context.Context) (core.BudgetConfig, error) {
	cfg := core.BudgetConfig{
		Limit:    core.Money{Cents: defaultBudgetLimitCents},
		Period:   core.BudgetMonthly,
		Currency: defaultCurrency,
	}

	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return cfg, fmt.Errorf("read settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return cfg, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case settingBudgetLimit:
			if cents, err := strconv.ParseInt(value, 10, 64); err == nil {
				cfg.Limit = core.Money{Cents: cents}
			}
		case settingBudgetPeriod:
			if p := core.BudgetPeriod(value); p.Valid() {
				cfg.Period = p
			}
		case settingCurrency:
			if value != "" {
				cfg.Currency = value
			}
		}
	}
	return cfg, rows.Err()
}

// SetBudgetConfig persists the budget preferences.
func (r *Repository) SetBudgetConfig(ctx context.Context, cfg core.BudgetConfig) error {
	if !cfg.Period.Valid() {
		return fmt.Errorf("invalid budget period %q", cfg.Period)
	}

	pairs := map[string]string{
		settingBudgetLimit:  strconv.FormatInt(cfg.Limit.Cents, 10),
		settingBudgetPeriod: string(cfg.Period),
		settingCurrency:     cfg.Currency,
	}
	for key, value := range pairs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("write setting %s: %w", key, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e     core.Expense
		tagID sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Date, &e.Value.Cents, &e.Image, &tagID); err != nil {
		return core.Expense{}, err
	}
	if tagID.Valid {
		e.TagID = tagID.String
	}
	return e, nil
}

func buildWhere(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Window != nil {
		conds = append(conds, `date >= ?`)
		args = append(args, f.Window.Start)
		if f.Window.ExclusiveEnd {
			conds = append(conds, `date < ?`)
		} else {
			conds = append(conds, `date <= ?`)
		}
		args = append(args, f.Window.End)
	}
	if f.NameContains != "" {
		// instr avoids LIKE wildcard escaping; lower() gives the
		// case-insensitive match the search box expects.
		conds = append(conds, `instr(lower(name), lower(?)) > 0`)
		args = append(args, f.NameContains)
	}
	if f.TagID != "" {
		conds = append(conds, `tag_id = ?`)
		args = append(args, f.TagID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
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

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
