package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned by lookup queries when no row matches. Callers
// distinguish it from transient lookup-layer failures.
var ErrNotFound = errors.New("not found")

// LookupStore exposes the two read-only reference tables: user_numbers
// (external user id -> internal numeric id) and mailbox_logs (delivery
// state per user and message). Both are append-only historical logs; the
// pipeline only ever reads them.
type LookupStore struct {
	db *sql.DB
}

func NewLookupStore(dataSourceName string) (*LookupStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping lookup database: %w", err)
	}

	store := &LookupStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize lookup schema: %w", err)
	}
	return store, nil
}

func (s *LookupStore) Close() error {
	return s.db.Close()
}

func (s *LookupStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS user_numbers (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT UNIQUE NOT NULL
    );

    CREATE TABLE IF NOT EXISTS mailbox_logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        message_id INTEGER NOT NULL,
        item_type INTEGER DEFAULT 0,
        item_id INTEGER DEFAULT 0,
        mail_state INTEGER NOT NULL, -- 0: pending, 1: received, 2: expired
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// ResolveUserNumber maps an external user identifier to its internal
// numeric id. Returns ErrNotFound when the user has no entry.
func (s *LookupStore) ResolveUserNumber(ctx context.Context, userID string) (*UserNumber, error) {
	var un UserNumber
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id FROM user_numbers WHERE user_id = ?", userID).
		Scan(&un.ID, &un.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user number: %w", err)
	}
	return &un, nil
}

// MailState returns the delivery state recorded for the given internal user
// id and message id, or ErrNotFound when no log row exists.
func (s *LookupStore) MailState(ctx context.Context, userNumberID int64, messageID int) (MailStatus, error) {
	var state int
	err := s.db.QueryRowContext(ctx,
		"SELECT mail_state FROM mailbox_logs WHERE user_id = ? AND message_id = ? ORDER BY created_at DESC LIMIT 1",
		userNumberID, messageID).
		Scan(&state)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to query mailbox log: %w", err)
	}
	return MailStatus(state), nil
}

// AddUserNumber inserts a user identity row. The pipeline never calls this;
// it exists for seeding and tests, matching the append-only nature of the
// source logs.
func (s *LookupStore) AddUserNumber(ctx context.Context, userID string) (*UserNumber, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO user_numbers (user_id) VALUES (?)", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user number: %w", err)
	}
	id, _ := res.LastInsertId()
	return &UserNumber{ID: id, UserID: userID}, nil
}

// AddMailboxLog appends a mailbox log row. Seeding and tests only.
func (s *LookupStore) AddMailboxLog(ctx context.Context, userNumberID int64, messageID int, state MailStatus) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO mailbox_logs (user_id, message_id, mail_state) VALUES (?, ?, ?)",
		userNumberID, messageID, state)
	if err != nil {
		return fmt.Errorf("failed to insert mailbox log: %w", err)
	}
	return nil
}
