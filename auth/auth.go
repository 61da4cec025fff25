// Package auth はユーザーのログイン (JWT) とパスワード再設定を扱います。
package auth

import (
	"context"
	"errors"
	"fmt"
	"seibi/config"
	"seibi/database"
	"seibi/mailer"
	"seibi/model"
	"seibi/validation"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

const (
	MinPasswordLength = 8
	ResetTokenTTL     = time.Hour
)

// Claims は発行するJWTの中身です。
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

type Service struct {
	db           *sqlx.DB
	sender       mailer.Sender
	secret       []byte
	expiry       time.Duration
	ResetURLBase string
	Now          func() time.Time
}

// NewService は署名鍵・有効期間・再設定URLを設定から読み込みます。
func NewService(db *sqlx.DB, sender mailer.Sender) *Service {
	cfg := config.GetConfig()
	return &Service{
		db:           db,
		sender:       sender,
		secret:       []byte(cfg.JWTSecret),
		expiry:       cfg.JWTExpiryDuration(),
		ResetURLBase: cfg.ResetURLBase,
		Now:          time.Now,
	}
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func validatePassword(password string, v validation.Violations) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		v["password"] = "too_short"
	}
}

// CreateUser はユーザーを登録します。ユーザー名は重複できません。
func (s *Service) CreateUser(username, email, password string, isAdmin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	viol := validation.Violations{}
	validation.Required("username", username, viol)
	validation.MaxLength("username", username, 50, viol)
	validation.Email("email", email, viol)
	validatePassword(password, viol)
	if err := viol.Err(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: username, Email: email, PasswordHash: hash, IsAdmin: isAdmin, CreatedAt: s.Now()}
	err = database.WithTx(s.db, func(tx *sqlx.Tx) error {
		if _, err := database.GetUserByUsername(tx, username); err == nil {
			return validation.Violations{"username": "already_exists"}.Err()
		} else if !errors.Is(err, database.ErrNotFound) {
			return err
		}
		return database.CreateUser(tx, u)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("User created: %s (admin %v)", u.Username, u.IsAdmin)
	return u, nil
}

// Login はユーザー名とパスワードを照合してトークンを発行します。
// ユーザーが無い場合もパスワード違いと同じ ErrInvalidCredentials です。
func (s *Service) Login(username, password string) (string, *model.User, error) {
	u, err := database.GetUserByUsername(s.db, strings.TrimSpace(username))
	if errors.Is(err, database.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !CheckPassword(password, u.PasswordHash) {
		log.Warnf("login failed for %s", u.Username)
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *Service) IssueToken(u *model.User) (string, error) {
	now := s.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken は "Bearer " の有無を問わずトークンを検証します。
func (s *Service) ValidateToken(raw string) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequestPasswordReset は1時間有効の再設定トークンを作り、リンクをメールで送ります。
// 結果は登録の有無で変わりません。メール設定が無ければ宛先を調べる前に
// mailer.ErrNotConfigured を返し、送信に失敗したときはログに残してトークンを消します。
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validation.Violations{"email": "required"}.Err()
	}
	if c, ok := s.sender.(mailer.Checker); ok {
		if err := c.Check(ctx); err != nil {
			return err
		}
	}
	u, err := database.GetUserByEmail(s.db, email)
	if errors.Is(err, database.ErrNotFound) {
		log.Warn("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	t := &model.PasswordResetToken{
		UserID:    u.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.Now().Add(ResetTokenTTL),
	}
	if err := database.CreateResetToken(s.db, t); err != nil {
		return err
	}

	link := s.ResetURLBase + "?token=" + t.Token
	body := fmt.Sprintf("%s 様\n\nパスワード再設定のご依頼を受け付けました。\n"+
		"以下のリンクから1時間以内に新しいパスワードを設定してください。\n\n%s\n\n"+
		"お心当たりの無い場合はこのメールを破棄してください。\n", u.Username, link)
	err = s.sender.Send(ctx, mailer.Message{
		To:      []string{u.Email},
		Subject: "パスワード再設定のご案内",
		Body:    body,
	})
	if err != nil {
		log.Errorf("password reset mail for user %d failed: %v", u.ID, err)
		if derr := database.DeleteResetToken(s.db, t.ID); derr != nil {
			log.Errorf("failed to delete unsent reset token %d: %v", t.ID, derr)
		}
	}
	return nil
}

// ResetPassword はトークンを使用済みにして新しいパスワードを保存します。
func (s *Service) ResetPassword(token, newPassword string) error {
	viol := validation.Violations{}
	validatePassword(newPassword, viol)
	if err := viol.Err(); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	now := s.Now()
	return database.WithTx(s.db, func(tx *sqlx.Tx) error {
		t, err := database.GetResetToken(tx, strings.TrimSpace(token))
		if errors.Is(err, database.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if t.UsedAt != nil {
			return ErrInvalidToken
		}
		if !t.Usable(now) {
			return ErrTokenExpired
		}
		if err := database.UpdateUserPassword(tx, t.UserID, hash); err != nil {
			return err
		}
		if err := database.MarkResetTokenUsed(tx, t.ID, now); err != nil {
			return err
		}
		log.Printf("Password reset for user %d", t.UserID)
		return nil
	})
}

// ListUsers はパスワードハッシュを除いたユーザー一覧です。
func (s *Service) ListUsers() ([]model.User, error) {
	users, err := database.GetAllUsers(s.db)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}
