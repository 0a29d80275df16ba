package orders

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const ordersSchema = `CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	product       TEXT NOT NULL,
	price         INTEGER NOT NULL,
	status        TEXT NOT NULL,
	delivery_date TEXT NOT NULL,
	created_at    TEXT NOT NULL
)`

// SQLiteStore keeps the ledger in a single SQLite table. Save rewrites the
// table inside one transaction so the stored ledger is always a full snapshot.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(ordersSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load() (map[string]Order, error) {
	rows, err := s.db.Query(`SELECT id, product, price, status, delivery_date, created_at FROM orders`)
	if err != nil {
		return map[string]Order{}, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	out := map[string]Order{}
	for rows.Next() {
		var (
			o       Order
			created string
		)
		if err := rows.Scan(&o.ID, &o.Product, &o.Price, &o.Status, &o.DeliveryDate, &created); err != nil {
			return map[string]Order{}, fmt.Errorf("scan order: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			o.CreatedAt = t
		}
		out[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return map[string]Order{}, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Save(orders map[string]Order) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM orders`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO orders (id, product, price, status, delivery_date, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for id, o := range orders {
		if _, err := stmt.Exec(id, o.Product, o.Price, string(o.Status), o.DeliveryDate, o.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
