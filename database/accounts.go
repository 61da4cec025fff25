package database

import (
	"database/sql"
	"errors"
	"fmt"
	"seibi/model"
	"time"
)

var (
	userColumns          = []string{"username", "email", "password_hash", "is_admin", "created_at"}
	emailSettingsColumns = []string{
		"smtp_host", "smtp_port", "username", "password", "from_address", "from_name", "use_tls",
	}
	resetTokenColumns = []string{"user_id", "token", "expires_at", "used_at"}
)

func CreateUser(dbtx DBTX, u *model.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	id, err := insertNamed(dbtx, "users", userColumns, u)
	if err != nil {
		return fmt.Errorf("CreateUser (Username: %s) failed: %w", u.Username, err)
	}
	u.ID = id
	return nil
}

func GetUserByUsername(dbtx DBTX, username string) (*model.User, error) {
	var u model.User
	err := dbtx.Get(&u, "SELECT * FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByUsername failed: %w", err)
	}
	return &u, nil
}

func GetUserByEmail(dbtx DBTX, email string) (*model.User, error) {
	var u model.User
	err := dbtx.Get(&u, "SELECT * FROM users WHERE email = ? ORDER BY id LIMIT 1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByEmail failed: %w", err)
	}
	return &u, nil
}

func GetUser(dbtx DBTX, id int64) (*model.User, error) {
	var u model.User
	if err := getByID(dbtx, &u, "users", id); err != nil {
		return nil, err
	}
	return &u, nil
}

func GetAllUsers(dbtx DBTX) ([]model.User, error) {
	users := []model.User{}
	if err := dbtx.Select(&users, "SELECT * FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

func UpdateUserPassword(dbtx DBTX, userID int64, hash string) error {
	res, err := dbtx.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hash, userID)
	if err != nil {
		return fmt.Errorf("UpdateUserPassword (ID: %d) failed: %w", userID, err)
	}
	return expectAffected(res)
}

// --- email settings (single row) ---

func GetEmailSettings(dbtx DBTX) (*model.EmailSettings, error) {
	var s model.EmailSettings
	err := dbtx.Get(&s, "SELECT * FROM email_settings ORDER BY id LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetEmailSettings failed: %w", err)
	}
	return &s, nil
}

func GetAllEmailSettings(dbtx DBTX) ([]model.EmailSettings, error) {
	rows := []model.EmailSettings{}
	if err := dbtx.Select(&rows, "SELECT * FROM email_settings ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get email settings: %w", err)
	}
	return rows, nil
}

func SaveEmailSettings(dbtx DBTX, s *model.EmailSettings) error {
	current, err := GetEmailSettings(dbtx)
	if errors.Is(err, ErrNotFound) {
		id, err := insertNamed(dbtx, "email_settings", emailSettingsColumns, s)
		if err != nil {
			return fmt.Errorf("SaveEmailSettings insert failed: %w", err)
		}
		s.ID = id
		return nil
	}
	if err != nil {
		return err
	}
	s.ID = current.ID
	if err := updateNamed(dbtx, "email_settings", emailSettingsColumns, s); err != nil {
		return fmt.Errorf("SaveEmailSettings update failed: %w", err)
	}
	return nil
}

// --- password reset tokens ---

func CreateResetToken(dbtx DBTX, t *model.PasswordResetToken) error {
	id, err := insertNamed(dbtx, "password_reset_tokens", resetTokenColumns, t)
	if err != nil {
		return fmt.Errorf("CreateResetToken (UserID: %d) failed: %w", t.UserID, err)
	}
	t.ID = id
	return nil
}

func GetResetToken(dbtx DBTX, token string) (*model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := dbtx.Get(&t, "SELECT * FROM password_reset_tokens WHERE token = ?", token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetResetToken failed: %w", err)
	}
	return &t, nil
}

func GetAllResetTokens(dbtx DBTX) ([]model.PasswordResetToken, error) {
	tokens := []model.PasswordResetToken{}
	if err := dbtx.Select(&tokens, "SELECT * FROM password_reset_tokens ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get reset tokens: %w", err)
	}
	return tokens, nil
}

func MarkResetTokenUsed(dbtx DBTX, id int64, at time.Time) error {
	res, err := dbtx.Exec("UPDATE password_reset_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL", at, id)
	if err != nil {
		return fmt.Errorf("MarkResetTokenUsed (ID: %d) failed: %w", id, err)
	}
	return expectAffected(res)
}

func DeleteResetToken(dbtx DBTX, id int64) error {
	if err := deleteByID(dbtx, "password_reset_tokens", id); err != nil {
		return fmt.Errorf("DeleteResetToken (ID: %d) failed: %w", id, err)
	}
	return nil
}
