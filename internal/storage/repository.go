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

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// SQLiteRepository is the durable transaction store. It implements the full
// ledger.Store contract, including live snapshot subscriptions: every
// successful write re-reads the owner's list and broadcasts it through the
// hub, so subscribers always observe the same descending-by-date view that
// GetAll returns.
type SQLiteRepository struct {
	db    *sql.DB
	hub   *ledger.Hub
	clock func() time.Time
}

var _ ledger.Store = (*SQLiteRepository)(nil)

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

	return &SQLiteRepository{
		db:    db,
		hub:   ledger.NewHub(),
		clock: time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add validates and inserts a transaction, assigning ID and CreatedAt.
func (r *SQLiteRepository) Add(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", ledger.NewValidationError(err)
	}

	tx.ID = uuid.NewString()
	tx.CreatedAt = r.clock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, amount_cents, type, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Amount.Cents, string(tx.Type), tx.Category, tx.Description,
		tx.Date.UTC(), tx.CreatedAt.UTC())
	if err != nil {
		return "", ledger.NewStorageError("add", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)

	r.broadcast(ctx, tx.UserID)
	return tx.ID, nil
}

// Update applies a partial patch. The patched record is re-validated so an
// update can never push a stored row past the write boundary.
func (r *SQLiteRepository) Update(ctx context.Context, userID, id string, patch ledger.Patch) error {
	current, err := r.get(ctx, userID, id)
	if err != nil {
		return err
	}

	updated := current
	patch.Apply(&updated)
	if err := updated.Validate(); err != nil {
		return ledger.NewValidationError(err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, type = ?, category = ?, description = ?, date = ?
		WHERE id = ? AND user_id = ?`,
		updated.Amount.Cents, string(updated.Type), updated.Category, updated.Description,
		updated.Date.UTC(), id, userID)
	if err != nil {
		return ledger.NewStorageError("update", err)
	}

	r.broadcast(ctx, userID)
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return ledger.NewStorageError("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	r.broadcast(ctx, userID)
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, type, category, description, date, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, ledger.NewStorageError("get_all", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) GetByRange(ctx context.Context, userID string, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, type, category, description, date, created_at
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC, created_at DESC`, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, ledger.NewStorageError("get_by_range", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// Subscribe registers onChange and delivers the current list immediately.
func (r *SQLiteRepository) Subscribe(ctx context.Context, userID string, onChange func([]core.Transaction)) (ledger.Unsubscribe, error) {
	initial, err := r.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	unsub := r.hub.Register(userID, onChange)
	onChange(initial)
	return unsub, nil
}

func (r *SQLiteRepository) get(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount_cents, type, category, description, date, created_at
		FROM transactions
		WHERE id = ? AND user_id = ?`, id, userID)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, ledger.NewStorageError("get", err)
	}
	return tx, nil
}

// broadcast pushes a fresh snapshot to subscribers after a write. A read
// failure here only degrades liveness, never the write that triggered it.
func (r *SQLiteRepository) broadcast(ctx context.Context, userID string) {
	if r.hub.Subscribers(userID) == 0 {
		return
	}
	snapshot, err := r.GetAll(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Snapshot read for broadcast failed", "user_id", userID, "error", err)
		return
	}
	r.hub.Broadcast(userID, snapshot)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		typ     string
		date    time.Time
		created time.Time
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Amount.Cents, &typ, &tx.Category,
		&tx.Description, &date, &created)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Date = date
	tx.CreatedAt = created
	return tx, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, ledger.NewStorageError("scan", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.NewStorageError("scan", err)
	}
	return out, nil
}

// Seed inserts demo transactions, skipping duplicates by description+date.
// Used by cmd/seed for local setups.
func (r *SQLiteRepository) Seed(ctx context.Context, txs []core.Transaction) (int, error) {
	inserted := 0
	for _, tx := range txs {
		var exists int
		err := r.db.QueryRowContext(ctx, `
			SELECT COUNT(1) FROM transactions
			WHERE user_id = ? AND description = ? AND date = ?`,
			tx.UserID, tx.Description, tx.Date.UTC()).Scan(&exists)
		if err != nil {
			return inserted, ledger.NewStorageError("seed", err)
		}
		if exists > 0 {
			continue
		}
		if _, err := r.Add(ctx, tx); err != nil {
			if ledger.IsValidation(err) {
				slog.WarnContext(ctx, "Skipping invalid seed record", "error", err)
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
