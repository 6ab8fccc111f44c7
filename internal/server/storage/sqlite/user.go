package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/server/storage"
)

const userColumns = `id, username, password, name, role, depot, is_active,
	created_at, last_login_at, last_login_device, is_online,
	workday_status, workday_closed_at, workday_opened_at,
	two_factor_enabled, two_factor_secret, backup_codes, backup_code_salt`

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	codes, err := json.Marshal(user.BackupCodes)
	if err != nil {
		return fmt.Errorf("failed to marshal backup codes: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Password,
		user.Name,
		string(user.Role),
		user.Depot,
		user.IsActive,
		user.CreatedAt,
		user.LastLoginAt,
		user.LastLoginDevice,
		user.IsOnline,
		string(user.WorkdayStatus),
		user.WorkdayClosedAt,
		user.WorkdayOpenedAt,
		user.TwoFactorEnabled,
		user.TwoFactorSecret,
		string(codes),
		user.BackupCodeSalt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, userID))
}

// GetAllUsers retrieves the resident user collection in insertion order
func (s *Storage) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// UpsertUser replaces the full record for user.ID, inserting it when absent
func (s *Storage) UpsertUser(ctx context.Context, user *models.User) error {
	codes, err := json.Marshal(user.BackupCodes)
	if err != nil {
		return fmt.Errorf("failed to marshal backup codes: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			password = excluded.password,
			name = excluded.name,
			role = excluded.role,
			depot = excluded.depot,
			is_active = excluded.is_active,
			created_at = excluded.created_at,
			last_login_at = excluded.last_login_at,
			last_login_device = excluded.last_login_device,
			is_online = excluded.is_online,
			workday_status = excluded.workday_status,
			workday_closed_at = excluded.workday_closed_at,
			workday_opened_at = excluded.workday_opened_at,
			two_factor_enabled = excluded.two_factor_enabled,
			two_factor_secret = excluded.two_factor_secret,
			backup_codes = excluded.backup_codes,
			backup_code_salt = excluded.backup_code_salt
	`

	_, err = s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Password,
		user.Name,
		string(user.Role),
		user.Depot,
		user.IsActive,
		user.CreatedAt,
		user.LastLoginAt,
		user.LastLoginDevice,
		user.IsOnline,
		string(user.WorkdayStatus),
		user.WorkdayClosedAt,
		user.WorkdayOpenedAt,
		user.TwoFactorEnabled,
		user.TwoFactorSecret,
		string(codes),
		user.BackupCodeSalt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// ReplaceUsers atomically replaces the resident collection. The merge
// result is computed fully in memory before this call; commit or
// nothing, so a failed write cannot leave a partial merge behind.
func (s *Storage) ReplaceUsers(ctx context.Context, users []*models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, user := range users {
		codes, err := json.Marshal(user.BackupCodes)
		if err != nil {
			return fmt.Errorf("failed to marshal backup codes: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			user.ID,
			user.Username,
			user.Password,
			user.Name,
			string(user.Role),
			user.Depot,
			user.IsActive,
			user.CreatedAt,
			user.LastLoginAt,
			user.LastLoginDevice,
			user.IsOnline,
			string(user.WorkdayStatus),
			user.WorkdayClosedAt,
			user.WorkdayOpenedAt,
			user.TwoFactorEnabled,
			user.TwoFactorSecret,
			string(codes),
			user.BackupCodeSalt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user %s: %w", user.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit users: %w", err)
	}

	return nil
}

// CountUsers returns the resident collection size
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// SetTwoFactor atomically persists or clears the user's 2FA material
func (s *Storage) SetTwoFactor(ctx context.Context, userID string, material storage.TwoFactorMaterial) error {
	codes, err := json.Marshal(material.BackupCodes)
	if err != nil {
		return fmt.Errorf("failed to marshal backup codes: %w", err)
	}

	query := `
		UPDATE users
		SET two_factor_enabled = ?, two_factor_secret = ?, backup_codes = ?, backup_code_salt = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		material.Enabled,
		material.Secret,
		string(codes),
		material.BackupCodeSalt,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set two factor material: %w", err)
	}

	return s.requireRowsAffected(result)
}

// UpdateLastLogin records a successful login
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time, device string) error {
	query := `UPDATE users SET last_login_at = ?, last_login_device = ?, is_online = 1 WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin, device, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return s.requireRowsAffected(result)
}

// SetWorkdayStatus transitions the user's workday state
func (s *Storage) SetWorkdayStatus(ctx context.Context, userID string, status models.WorkdayStatus, at time.Time) error {
	var query string
	switch status {
	case models.WorkdayClosed:
		query = `UPDATE users SET workday_status = ?, workday_closed_at = ? WHERE id = ?`
	case models.WorkdayOpen:
		query = `UPDATE users SET workday_status = ?, workday_opened_at = ? WHERE id = ?`
	default:
		return fmt.Errorf("unsupported workday status: %q", status)
	}

	result, err := s.db.ExecContext(ctx, query, string(status), at, userID)
	if err != nil {
		return fmt.Errorf("failed to set workday status: %w", err)
	}

	return s.requireRowsAffected(result)
}

// scanner abstracts sql.Row and sql.Rows for scanUser
type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads one user row
func (s *Storage) scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var (
		lastLoginAt     sql.NullTime
		workdayClosedAt sql.NullTime
		workdayOpenedAt sql.NullTime
		backupCodes     string
	)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.Name,
		&user.Role,
		&user.Depot,
		&user.IsActive,
		&user.CreatedAt,
		&lastLoginAt,
		&user.LastLoginDevice,
		&user.IsOnline,
		&user.WorkdayStatus,
		&workdayClosedAt,
		&workdayOpenedAt,
		&user.TwoFactorEnabled,
		&user.TwoFactorSecret,
		&backupCodes,
		&user.BackupCodeSalt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}
	if workdayClosedAt.Valid {
		user.WorkdayClosedAt = &workdayClosedAt.Time
	}
	if workdayOpenedAt.Valid {
		user.WorkdayOpenedAt = &workdayOpenedAt.Time
	}

	if err := json.Unmarshal([]byte(backupCodes), &user.BackupCodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backup codes: %w", err)
	}

	return user, nil
}

// requireRowsAffected maps zero affected rows to ErrUserNotFound
func (s *Storage) requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}
