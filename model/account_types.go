package model

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"passwordHash"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type EmailSettings struct {
	ID          int64  `db:"id" json:"id"`
	SMTPHost    string `db:"smtp_host" json:"smtpHost"`
	SMTPPort    int    `db:"smtp_port" json:"smtpPort"`
	Username    string `db:"username" json:"username"`
	Password    string `db:"password" json:"password"`
	FromAddress string `db:"from_address" json:"fromAddress"`
	FromName    string `db:"from_name" json:"fromName"`
	UseTLS      bool   `db:"use_tls" json:"useTls"`
}

type PasswordResetToken struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"userId"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt"`
}

func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
