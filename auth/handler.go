package auth

import (
	"errors"
	"net/http"
	"seibi/httpx"
	"seibi/mailer"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler は POST /api/auth/login です。
func LoginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		token, u, err := svc.Login(req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.JSONError(w, http.StatusUnauthorized, "ユーザー名またはパスワードが違います", nil)
			return
		}
		if err != nil {
			httpx.ServiceError(w, err, "ログインに失敗しました")
			return
		}
		u.PasswordHash = ""
		httpx.JSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": u})
	}
}

// ResetRequestHandler は POST /api/auth/reset-request {"email"} です。
// 登録の有無にかかわらず同じ応答を返します。
func ResetRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		err := svc.RequestPasswordReset(r.Context(), req.Email)
		if errors.Is(err, mailer.ErrNotConfigured) {
			httpx.JSONError(w, http.StatusServiceUnavailable, "メール設定が登録されていません", nil)
			return
		}
		if err != nil {
			httpx.ServiceError(w, err, "再設定メールの送信に失敗しました")
			return
		}
		httpx.Message(w, "登録されているメールアドレスであれば、再設定のご案内を送信しました。")
	}
}

// ResetPasswordHandler は POST /api/auth/reset-password {"token","password"} です。
func ResetPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		err := svc.ResetPassword(req.Token, req.Password)
		switch {
		case errors.Is(err, ErrTokenExpired):
			httpx.JSONError(w, http.StatusBadRequest, "再設定リンクの有効期限が切れています", nil)
		case errors.Is(err, ErrInvalidToken):
			httpx.JSONError(w, http.StatusBadRequest, "再設定リンクが無効です", nil)
		case err != nil:
			httpx.ServiceError(w, err, "パスワードの再設定に失敗しました")
		default:
			httpx.Message(w, "パスワードを再設定しました。")
		}
	}
}

// MeHandler は GET /api/auth/me です。
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := ClaimsFrom(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "ログインが必要です", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]interface{}{
			"id": c.UserID, "username": c.Username, "isAdmin": c.IsAdmin,
		})
	}
}

func ListUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.ListUsers()
		if err != nil {
			httpx.ServiceError(w, err, "ユーザー一覧の取得に失敗しました")
			return
		}
		httpx.JSON(w, http.StatusOK, users)
	}
}

// CreateUserHandler は POST /api/users です (管理者のみ)。
func CreateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
			IsAdmin  bool   `json:"isAdmin"`
		}
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "リクエストの形式が不正です", err.Error())
			return
		}
		u, err := svc.CreateUser(req.Username, req.Email, req.Password, req.IsAdmin)
		if err != nil {
			httpx.ServiceError(w, err, "ユーザーの登録に失敗しました")
			return
		}
		u.PasswordHash = ""
		httpx.JSON(w, http.StatusCreated, u)
	}
}
