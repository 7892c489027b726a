// Package storage persists reconciliation results and user accounts in a
// relational store behind sqlx. The reconciliation core never touches this
// package; it receives plain record slices and owns its own retry behavior.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

// saveAttempts bounds the transient-failure retry loop on writes.
const saveAttempts = 3

// ErrUserNotFound is returned when a username does not exist.
var ErrUserNotFound = errors.New("user not found")

// Store wraps the database handle.
type Store struct {
	db     *sqlx.DB
	driver string
}

// User is one account row.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// StoredRecord is one persisted reconciliation row.
type StoredRecord struct {
	ID              int64     `db:"id" json:"id"`
	YJCode          string    `db:"yj_code" json:"yj_code"`
	ProductName     string    `db:"product_name" json:"product_name"`
	ProductSpec     string    `db:"product_spec" json:"product_spec"`
	Quantity        int       `db:"quantity" json:"quantity"`
	Unit            string    `db:"unit" json:"unit"`
	InternalCode    string    `db:"internal_code" json:"internal_code"`
	ExpiryDate      *string   `db:"expiry_date" json:"expiry_date"`
	Lot             string    `db:"lot" json:"lot"`
	LegalEntity     string    `db:"legal_entity" json:"legal_entity"`
	Facility        string    `db:"facility" json:"facility"`
	DaysUntilExpiry int       `db:"days_until_expiry" json:"days_until_expiry"`
	DeadStock       bool      `db:"dead_stock" json:"dead_stock"`
	UploadedAt      time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// Open connects to the database. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, driver: driver}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the connection, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var schemaStatements = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(200) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS deadstock_records (
			id SERIAL PRIMARY KEY,
			yj_code VARCHAR(100),
			product_name VARCHAR(200),
			product_spec VARCHAR(200),
			quantity INTEGER,
			unit VARCHAR(50),
			internal_code VARCHAR(100),
			expiry_date DATE,
			lot VARCHAR(100),
			legal_entity VARCHAR(200),
			facility VARCHAR(200),
			days_until_expiry INTEGER,
			dead_stock BOOLEAN,
			uploaded_at TIMESTAMP
		)`,
	},
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS deadstock_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			yj_code TEXT,
			product_name TEXT,
			product_spec TEXT,
			quantity INTEGER,
			unit TEXT,
			internal_code TEXT,
			expiry_date TEXT,
			lot TEXT,
			legal_entity TEXT,
			facility TEXT,
			days_until_expiry INTEGER,
			dead_stock BOOLEAN,
			uploaded_at TIMESTAMP
		)`,
	},
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements, ok := schemaStatements[s.driver]
	if !ok {
		return fmt.Errorf("no schema for driver %s", s.driver)
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new account with an already-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO users (username, password_hash) VALUES (?, ?)`),
		username, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return nil
}

// UserByName fetches an account, or ErrUserNotFound.
func (s *Store) UserByName(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind(`SELECT id, username, password_hash FROM users WHERE username = ?`),
		username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", username, err)
	}
	return &u, nil
}

const insertRecord = `
	INSERT INTO deadstock_records
		(yj_code, product_name, product_spec, quantity, unit, internal_code,
		 expiry_date, lot, legal_entity, facility, days_until_expiry, dead_stock, uploaded_at)
	VALUES
		(:yj_code, :product_name, :product_spec, :quantity, :unit, :internal_code,
		 :expiry_date, :lot, :legal_entity, :facility, :days_until_expiry, :dead_stock, :uploaded_at)`

// SaveRecords persists one run's reconciled records in a single transaction.
// Transient failures are retried up to 3 attempts, matching the behavior of
// the system this store replaced.
func (s *Store) SaveRecords(ctx context.Context, records []entities.ReconciledRecord, uploadedAt time.Time) error {
	rows := make([]StoredRecord, 0, len(records))
	for _, r := range records {
		var expiry *string
		if r.ExpiryDate != "" {
			e := r.ExpiryDate
			expiry = &e
		}
		rows = append(rows, StoredRecord{
			YJCode:          r.YJCode,
			ProductName:     r.ProductName,
			ProductSpec:     r.ProductSpec,
			Quantity:        r.Quantity,
			Unit:            r.Unit,
			InternalCode:    r.InternalCode,
			ExpiryDate:      expiry,
			Lot:             r.Lot,
			LegalEntity:     r.LegalEntity,
			Facility:        r.Facility,
			DaysUntilExpiry: r.DaysUntilExpiry,
			DeadStock:       r.DeadStock,
			UploadedAt:      uploadedAt.UTC(),
		})
	}

	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		if lastErr = s.saveOnce(ctx, rows); lastErr == nil {
			return nil
		}
		logging.Warn("Failed to save reconciliation records",
			"attempt", attempt, "max_attempts", saveAttempts, "error", lastErr)
		if attempt < saveAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("failed to save records after %d attempts: %w", saveAttempts, lastErr)
}

func (s *Store) saveOnce(ctx context.Context, rows []StoredRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, insertRecord, row); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Warn("Rollback failed", "error", rbErr)
			}
			return fmt.Errorf("insert record: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRecords returns the newest persisted records, most recent upload first.
func (s *Store) RecentRecords(ctx context.Context, limit int) ([]StoredRecord, error) {
	var rows []StoredRecord
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT id, yj_code, product_name, product_spec, quantity, unit,
			internal_code, expiry_date, lot, legal_entity, facility,
			days_until_expiry, dead_stock, uploaded_at
			FROM deadstock_records ORDER BY uploaded_at DESC, id DESC LIMIT ?`),
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent records: %w", err)
	}
	return rows, nil
}

// DeleteOlderThan removes persisted records uploaded before the cutoff and
// returns how many were deleted.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM deadstock_records WHERE uploaded_at < ?`),
		cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted records: %w", err)
	}
	return n, nil
}
