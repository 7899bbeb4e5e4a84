package devicesim

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// SQLStore keeps the saved list in a sqlite database.
type SQLStore struct {
	db *sqlx.DB
}

type savedRow struct {
	ID     int    `db:"id"`
	APName string `db:"ap_name"`
	APPass string `db:"ap_pass"`
}

func (r savedRow) network() wifiapi.SavedNetwork {
	return wifiapi.SavedNetwork{ID: r.ID, APName: r.APName, APPass: r.APPass}
}

const savedSchema = `
CREATE TABLE IF NOT EXISTS saved_networks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ap_name TEXT UNIQUE NOT NULL,
    ap_pass TEXT NOT NULL DEFAULT ''
);
`

// NewSQLStore opens (and creates if needed) the database at dbName.
func NewSQLStore(dbName string) (*SQLStore, error) {
	db, err := sqlx.Connect("sqlite3", dbName)
	if err != nil {
		logging.Error("Failed to connect to database", zap.String("db", dbName), zap.Error(err))
		return nil, err
	}

	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(savedSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create saved_networks table: %w", err)
	}

	logging.Debug("Opened saved network database", zap.String("db", dbName))
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) List(ctx context.Context) ([]wifiapi.SavedNetwork, error) {
	var rows []savedRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, ap_name, ap_pass FROM saved_networks ORDER BY ap_name DESC`); err != nil {
		return nil, fmt.Errorf("failed to list saved networks: %w", err)
	}

	out := make([]wifiapi.SavedNetwork, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.network())
	}
	return out, nil
}

func (s *SQLStore) Add(ctx context.Context, apName, apPass string) (wifiapi.SavedNetwork, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wifiapi.SavedNetwork{}, err
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM saved_networks WHERE ap_name = ?`, apName); err != nil {
		return wifiapi.SavedNetwork{}, err
	}
	if count > 0 {
		return wifiapi.SavedNetwork{}, ErrDuplicate
	}

	res, err := tx.NamedExecContext(ctx,
		`INSERT INTO saved_networks (ap_name, ap_pass) VALUES (:ap_name, :ap_pass)`,
		savedRow{APName: apName, APPass: apPass})
	if err != nil {
		return wifiapi.SavedNetwork{}, fmt.Errorf("failed to insert saved network: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return wifiapi.SavedNetwork{}, err
	}

	if err := tx.Commit(); err != nil {
		return wifiapi.SavedNetwork{}, err
	}
	return wifiapi.SavedNetwork{ID: int(id), APName: apName, APPass: apPass}, nil
}

func (s *SQLStore) DeleteByID(ctx context.Context, id int) (wifiapi.SavedNetwork, error) {
	return s.deleteWhere(ctx, `id = ?`, id)
}

func (s *SQLStore) DeleteByAPName(ctx context.Context, apName string) (wifiapi.SavedNetwork, error) {
	return s.deleteWhere(ctx, `ap_name = ?`, apName)
}

func (s *SQLStore) deleteWhere(ctx context.Context, cond string, arg any) (wifiapi.SavedNetwork, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wifiapi.SavedNetwork{}, err
	}
	defer tx.Rollback()

	var row savedRow
	err = tx.GetContext(ctx, &row, `SELECT id, ap_name, ap_pass FROM saved_networks WHERE `+cond, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return wifiapi.SavedNetwork{}, ErrNotFound
	}
	if err != nil {
		return wifiapi.SavedNetwork{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_networks WHERE id = ?`, row.ID); err != nil {
		return wifiapi.SavedNetwork{}, fmt.Errorf("failed to delete saved network: %w", err)
	}
	return row.network(), tx.Commit()
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
