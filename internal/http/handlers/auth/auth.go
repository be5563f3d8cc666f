package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tiktalkapp/tiktalk-service/internal/feed"
	"github.com/tiktalkapp/tiktalk-service/internal/session"
	"github.com/tiktalkapp/tiktalk-service/internal/types/users"
	"github.com/tiktalkapp/tiktalk-service/internal/utils/response"
)

func setSessionCookie(w http.ResponseWriter, name, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
		return false
	} else if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	validate := validator.New()
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// Register handles user registration and opens a session for the new user.
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.RegisterRequest true "User registration details"
// @Success 201 {object} response.Response "User created"
// @Failure 400 {object} response.Response "Bad request or duplicate username"
// @Router /register [post]
func Register(svc *feed.Service, sessions session.Store, cookieName string, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.RegisterRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, err := svc.Register(r.Context(), req.Username, req.Password)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		token, err := sessions.Create(r.Context(), user.ID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create session")))
			return
		}
		setSessionCookie(w, cookieName, token, ttl)

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("registered successfully", map[string]string{
			"id":       user.ID,
			"username": user.Username,
			"user_tag": user.UserTag,
		}))
	}
}

// Login authenticates a user and opens a session.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.LoginRequest true "User login details"
// @Success 200 {object} response.Response "Logged in"
// @Failure 401 {object} response.Response "Invalid credentials"
// @Router /login [post]
func Login(svc *feed.Service, sessions session.Store, cookieName string, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.LoginRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, err := svc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		token, err := sessions.Create(r.Context(), user.ID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create session")))
			return
		}
		setSessionCookie(w, cookieName, token, ttl)
		slog.Info("user logged in", slog.String("user_id", user.ID))

		response.WriteJSON(w, http.StatusOK, response.RequestOK("logged in successfully", map[string]string{
			"id":       user.ID,
			"username": user.Username,
		}))
	}
}

// Logout destroys the current session; the token is dead afterwards even if
// the cookie lingers client-side.
// @Summary Log out
// @Tags auth
// @Success 200 {object} response.Response "Logged out"
// @Router /logout [post]
func Logout(sessions session.Store, cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			if err := sessions.Destroy(r.Context(), cookie.Value); err != nil {
				slog.Error("failed to destroy session", slog.String("error", err.Error()))
			}
		}
		clearSessionCookie(w, cookieName)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("logged out", nil))
	}
}
