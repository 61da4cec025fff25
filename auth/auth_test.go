package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"seibi/database"
	"seibi/mailer"
	"seibi/model"
	"seibi/testdb"
	"seibi/validation"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingSender) {
	db := testdb.Open(t)
	sender := &recordingSender{}
	svc := NewService(db, sender)
	svc.ResetURLBase = "http://shop.example/reset"
	return svc, sender
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", hash)
	assert.True(t, CheckPassword("secret-pass", hash))
	assert.False(t, CheckPassword("wrong-pass", hash))
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateUser("", "bad-email", "short", false)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Violations["username"])
	assert.Equal(t, "invalid_email", verr.Violations["email"])
	assert.Equal(t, "too_short", verr.Violations["password"])

	_, err = svc.CreateUser("admin", "admin@example.com", "password1", true)
	require.NoError(t, err)
	_, err = svc.CreateUser("admin", "other@example.com", "password2", false)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "already_exists", verr.Violations["username"])
}

func TestLoginAndValidateToken(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateUser("admin", "admin@example.com", "password1", true)
	require.NoError(t, err)

	_, _, err = svc.Login("admin", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login("nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, u, err := svc.Login("admin", "password1")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)

	claims, err := svc.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.True(t, claims.IsAdmin)

	_, err = svc.ValidateToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(svc.db, nil)
	other.secret = []byte("another-secret")
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.CreateUser("admin", "", "password1", false)
	require.NoError(t, err)

	issued := time.Now().Add(-48 * time.Hour)
	svc.Now = func() time.Time { return issued }
	token, err := svc.IssueToken(u)
	require.NoError(t, err)

	svc.Now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, sender := newTestService(t)
	_, err := svc.CreateUser("taro", "taro@example.com", "old-password", false)
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "unknown@example.com"))
	assert.Empty(t, sender.sent)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "taro@example.com"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"taro@example.com"}, sender.sent[0].To)

	tokens, err := database.GetAllResetTokens(svc.db)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	token := tokens[0].Token
	assert.Contains(t, sender.sent[0].Body, "http://shop.example/reset?token="+token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tokens[0].ExpiresAt, time.Minute)

	var verr *validation.Error
	require.ErrorAs(t, svc.ResetPassword(token, "short"), &verr)

	require.NoError(t, svc.ResetPassword(token, "new-password"))
	_, _, err = svc.Login("taro", "old-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login("taro", "new-password")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(token, "another-password"), ErrInvalidToken)
	assert.ErrorIs(t, svc.ResetPassword("no-such-token", "another-password"), ErrInvalidToken)
}

func TestResetTokenExpires(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateUser("taro", "taro@example.com", "old-password", false)
	require.NoError(t, err)

	requested := time.Now()
	svc.Now = func() time.Time { return requested }
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "taro@example.com"))
	tokens, err := database.GetAllResetTokens(svc.db)
	require.NoError(t, err)

	svc.Now = func() time.Time { return requested.Add(61 * time.Minute) }
	assert.ErrorIs(t, svc.ResetPassword(tokens[0].Token, "new-password"), ErrTokenExpired)
}

func TestResetRequestFailedSendDropsToken(t *testing.T) {
	svc, sender := newTestService(t)
	_, err := svc.CreateUser("taro", "taro@example.com", "old-password", false)
	require.NoError(t, err)
	sender.err = errors.New("connection refused")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "taro@example.com"))
	tokens, err := database.GetAllResetTokens(svc.db)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

// 登録済みと未登録のメールアドレスで応答が同じであること
func TestResetRequestHandlerSameReplyForAnyEmail(t *testing.T) {
	db := testdb.Open(t)
	svc := NewService(db, mailer.New(db))
	_, err := svc.CreateUser("alice", "alice@example.com", "password1", false)
	require.NoError(t, err)
	h := ResetRequestHandler(svc)

	send := func(email string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"email": email})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/reset-request", bytes.NewReader(body)))
		return rec
	}
	assertSame := func(wantStatus int) {
		known, unknown := send("alice@example.com"), send("nobody@example.com")
		assert.Equal(t, wantStatus, known.Code, known.Body.String())
		assert.Equal(t, known.Code, unknown.Code)
		assert.JSONEq(t, known.Body.String(), unknown.Body.String())
		tokens, err := database.GetAllResetTokens(db)
		require.NoError(t, err)
		assert.Empty(t, tokens)
	}

	// メール設定なし
	assertSame(http.StatusServiceUnavailable)

	// 設定はあるが SMTP サーバーに繋がらない
	require.NoError(t, database.SaveEmailSettings(db, &model.EmailSettings{
		SMTPHost: "127.0.0.1", SMTPPort: 1, FromAddress: "office@example.com",
	}))
	assertSame(http.StatusOK)
}

func TestMiddleware(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.CreateUser("staff", "", "password1", false)
	require.NoError(t, err)
	token, err := svc.IssueToken(u)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", MeHandler())
	mux.HandleFunc("POST /api/auth/login", LoginHandler(svc))
	mux.HandleFunc("GET /api/users", RequireAdmin(ListUsersHandler(svc)))
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := svc.Middleware(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"staff"`)

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body, _ := json.Marshal(map[string]string{"username": "staff", "password": "password1"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"staff","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
