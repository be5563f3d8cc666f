package profile

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/tiktalkapp/tiktalk-service/internal/feed"
	"github.com/tiktalkapp/tiktalk-service/internal/http/middleware"
	"github.com/tiktalkapp/tiktalk-service/internal/media"
	"github.com/tiktalkapp/tiktalk-service/internal/types/users"
	"github.com/tiktalkapp/tiktalk-service/internal/utils/response"
)

const maxMultipartMemory = 32 << 20

// Me returns the authenticated user's profile.
// @Summary Get own profile
// @Tags profile
// @Security SessionCookie
// @Router /profile [get]
func Me(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		user, err := svc.UserByID(r.Context(), userID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("profile fetched successfully", user))
	}
}

// Posts returns the viewer's own posts, annotated for themselves.
// @Summary Get own posts
// @Tags profile
// @Security SessionCookie
// @Router /profile/posts [get]
func Posts(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		views, err := svc.PostsByUser(r.Context(), userID, userID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("posts fetched successfully", views))
	}
}

// Shelf returns the posts in one of the viewer's reference sets (likes,
// dislikes, saved, hidden).
// @Summary Get a profile shelf
// @Tags profile
// @Security SessionCookie
// @Router /profile/{shelf} [get]
func Shelf(svc *feed.Service, shelf feed.Shelf) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		views, err := svc.ShelfPosts(r.Context(), userID, shelf)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("posts fetched successfully", views))
	}
}

// UpdatePicture uploads a new profile picture and points the profile at it.
// @Summary Update profile picture
// @Tags profile
// @Accept mpfd
// @Security SessionCookie
// @Router /profile/picture [post]
func UpdatePicture(svc *feed.Service, files *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid multipart form")))
			return
		}
		file, header, err := r.FormFile("profile_pic")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("profile_pic file is required")))
			return
		}
		defer file.Close()

		url, err := files.Store(r.Context(), file, header.Size, header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			slog.Error("profile picture upload failed", slog.String("error", err.Error()), slog.String("user_id", userID))
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, err := svc.SetProfilePic(r.Context(), userID, url)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "newProfilePic": user.ProfilePic})
	}
}

// Settings renames the user; the user tag follows the new name.
// @Summary Change username
// @Tags profile
// @Security SessionCookie
// @Router /settings [post]
func Settings(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		var req users.SettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		user, err := svc.ChangeUsername(r.Context(), userID, req.NewUsername)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("username updated successfully", map[string]string{
			"username": user.Username,
			"user_tag": user.UserTag,
		}))
	}
}
