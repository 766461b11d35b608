// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/metrics"
	"github.com/tomtom215/usercenter/internal/models"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id           BIGINT PRIMARY KEY,
	user_account VARCHAR NOT NULL DEFAULT '',
	username     VARCHAR NOT NULL DEFAULT '',
	avatar_url   VARCHAR,
	gender       VARCHAR,
	phone        VARCHAR,
	email        VARCHAR,
	user_status  INTEGER NOT NULL DEFAULT 0,
	role         VARCHAR NOT NULL DEFAULT 'normal',
	planet_code  VARCHAR,
	tags         VARCHAR,
	profile      VARCHAR,
	create_time  TIMESTAMP NOT NULL DEFAULT current_timestamp,
	is_delete    BOOLEAN NOT NULL DEFAULT false
)`

const userColumns = `id, user_account, username, avatar_url, gender, phone, email,
	user_status, role, planet_code, tags, profile, create_time, is_delete`

// DuckDB is a UserStore backed by a DuckDB database.
type DuckDB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// NewDuckDB opens the database at cfg.Path and creates the users table.
func NewDuckDB(cfg *config.DatabaseConfig) (*DuckDB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent across calls.
	if cfg.Path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	db := &DuckDB{conn: conn, cfg: cfg}
	if _, err := conn.Exec(usersSchema); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	logging.WithComponent("store").Info().Str("path", cfg.Path).Int("threads", threads).Msg("DuckDB user store ready")
	return db, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s rowScanner) (*models.User, error) {
	u := &models.User{}
	var avatar, gender, phone, email, planet, tags, profile sql.NullString
	var role string

	err := s.Scan(&u.ID, &u.UserAccount, &u.Username, &avatar, &gender, &phone, &email,
		&u.UserStatus, &role, &planet, &tags, &profile, &u.CreateTime, &u.IsDelete)
	if err != nil {
		return nil, err
	}

	u.AvatarURL = avatar.String
	u.Gender = gender.String
	u.Phone = phone.String
	u.Email = email.String
	u.PlanetCode = planet.String
	u.Tags = tags.String
	u.Profile = profile.String
	u.Role = models.Role(role)
	return u, nil
}

// observe records a store call. A missing row is not a store failure.
func observe(op string, start time.Time, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		err = nil
	}
	metrics.RecordStoreOperation(op, time.Since(start), err)
}

// FindByID implements UserStore.
func (db *DuckDB) FindByID(ctx context.Context, id int64) (u *models.User, err error) {
	start := time.Now()
	defer func() { observe("find_by_id", start, err) }()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND is_delete = false`, id)
	u, err = scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	return u, nil
}

// UpdateByID implements UserStore. Only non-nil patch fields are written.
func (db *DuckDB) UpdateByID(ctx context.Context, patch models.UserPatch) (rows int64, err error) {
	start := time.Now()
	defer func() { observe("update_by_id", start, err) }()

	if patch.Empty() {
		return 0, emptyPatch(patch.ID)
	}

	var (
		sets []string
		args []interface{}
	)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("username", patch.Username)
	add("avatar_url", patch.AvatarURL)
	add("gender", patch.Gender)
	add("phone", patch.Phone)
	add("email", patch.Email)
	add("tags", patch.Tags)
	add("profile", patch.Profile)
	args = append(args, patch.ID)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND is_delete = false`
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update user %d: %w", patch.ID, err)
	}
	rows, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows, nil
}

// CountWhere implements UserStore.
func (db *DuckDB) CountWhere(ctx context.Context, f Filter) (n int64, err error) {
	start := time.Now()
	defer func() { observe("count_where", start, err) }()

	conds := []string{"is_delete = false"}
	var args []interface{}
	if f.ID != 0 {
		conds = append(conds, "id = ?")
		args = append(args, f.ID)
	}
	if f.UserAccount != "" {
		conds = append(conds, "user_account = ?")
		args = append(args, f.UserAccount)
	}
	if f.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, string(f.Role))
	}
	if f.HasTags {
		conds = append(conds, "trim(coalesce(tags, '')) <> ''")
	}

	query := `SELECT count(*) FROM users WHERE ` + strings.Join(conds, " AND ")
	if err = db.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// ListAll implements UserStore.
func (db *DuckDB) ListAll(ctx context.Context) (users []models.User, err error) {
	start := time.Now()
	defer func() { observe("list_all", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_delete = false ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan user: %w", scanErr)
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Insert implements UserStore.
func (db *DuckDB) Insert(ctx context.Context, u *models.User) (err error) {
	start := time.Now()
	defer func() { observe("insert", start, err) }()

	if u.ID <= 0 {
		return fmt.Errorf("insert user: id must be positive, got %d", u.ID)
	}
	role := u.Role
	if role == "" {
		role = models.RoleNormal
	}
	created := u.CreateTime
	if created.IsZero() {
		created = time.Now()
	}

	_, err = db.conn.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserAccount, u.Username, u.AvatarURL, u.Gender, u.Phone, u.Email,
		u.UserStatus, string(role), u.PlanetCode, u.Tags, u.Profile, created, u.IsDelete)
	if err != nil {
		return fmt.Errorf("failed to insert user %d: %w", u.ID, err)
	}
	return nil
}

// Ping checks the connection.
func (db *DuckDB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database.
func (db *DuckDB) Close() error {
	return db.conn.Close()
}
