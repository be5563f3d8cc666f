package posts

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tiktalkapp/tiktalk-service/internal/feed"
	"github.com/tiktalkapp/tiktalk-service/internal/http/middleware"
	"github.com/tiktalkapp/tiktalk-service/internal/media"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
	"github.com/tiktalkapp/tiktalk-service/internal/utils/response"
)

const maxMultipartMemory = 32 << 20

// Feed returns all posts newest-first, annotated for the viewer (ownership
// and reaction flags are all false for anonymous requests).
// @Summary Get the post feed
// @Tags posts
// @Produce json
// @Success 200 {object} response.Response "Posts"
// @Router /feed [get]
func Feed(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID, _ := middleware.GetUserIDFromContext(r.Context())

		views, err := svc.Feed(r.Context(), viewerID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("posts fetched successfully", views))
	}
}

// Search matches the q parameter as a case-insensitive caption substring.
// @Summary Search posts by caption
// @Tags posts
// @Param q query string true "Search query"
// @Router /search [get]
func Search(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		viewerID, _ := middleware.GetUserIDFromContext(r.Context())

		views, err := svc.Search(r.Context(), query, viewerID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("search results", views))
	}
}

// ByTag filters posts by exact tag match.
// @Summary Get posts by tag
// @Tags posts
// @Param tag path string true "Post tag"
// @Router /tags/{tag} [get]
func ByTag(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := r.PathValue("tag")
		if tag == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("tag is required")))
			return
		}
		viewerID, _ := middleware.GetUserIDFromContext(r.Context())

		views, err := svc.PostsByTag(r.Context(), tag, viewerID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("posts fetched successfully", views))
	}
}

// Get returns a single post.
// @Summary Get a post
// @Tags posts
// @Param id path string true "Post ID"
// @Router /posts/{id} [get]
func Get(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID, _ := middleware.GetUserIDFromContext(r.Context())

		view, err := svc.Post(r.Context(), r.PathValue("id"), viewerID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("post fetched successfully", view))
	}
}

// Create accepts a multipart form with caption, post_tag and an optional
// image. A post needs a caption or an image; an empty form is rejected
// before anything is stored or uploaded.
// @Summary Create a post
// @Tags posts
// @Accept mpfd
// @Produce json
// @Success 201 {object} response.Response "Post created"
// @Failure 400 {object} response.Response "Missing caption and image"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security SessionCookie
// @Router /posts [post]
func Create(svc *feed.Service, files *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid multipart form")))
			return
		}
		caption := r.FormValue("caption")
		postTag := r.FormValue("post_tag")

		var imageURL string
		file, header, err := r.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// caption-only post
		case err != nil:
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid image upload")))
			return
		default:
			defer file.Close()
			imageURL, err = files.Store(r.Context(), file, header.Size, header.Filename, header.Header.Get("Content-Type"))
			if err != nil {
				slog.Error("image upload failed", slog.String("error", err.Error()), slog.String("user_id", actorID))
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
		}

		post, err := svc.CreatePost(r.Context(), actorID, caption, imageURL, postTag)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, response.RequestOK("post created successfully", map[string]string{"id": post.ID}))
	}
}

type editRequest struct {
	Caption string `json:"caption"`
}

// Edit updates the caption only; image and tag are immutable.
// @Summary Edit a post caption
// @Tags posts
// @Param id path string true "Post ID"
// @Security SessionCookie
// @Router /posts/{id} [patch]
func Edit(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		post, err := svc.EditPost(r.Context(), actorID, r.PathValue("id"), req.Caption)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("post updated successfully", map[string]any{
			"id":      post.ID,
			"caption": post.Caption,
			"edited":  post.Edited,
		}))
	}
}

// Delete removes a post with its whole comment tree and detaches it from
// every user's reaction sets.
// @Summary Delete a post
// @Tags posts
// @Param id path string true "Post ID"
// @Security SessionCookie
// @Router /posts/{id} [delete]
func Delete(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		if err := svc.DeletePost(r.Context(), actorID, r.PathValue("id")); err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("post deleted successfully", nil))
	}
}

// React toggles the actor's like or dislike on a post.
// @Summary React to a post
// @Tags posts
// @Param id path string true "Post ID"
// @Security SessionCookie
// @Router /posts/{id}/like [post]
func React(svc *feed.Service, polarity types.Polarity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		result, err := svc.ReactToPost(r.Context(), actorID, r.PathValue("id"), polarity)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.ReactionPayload(polarity, result))
	}
}

// Save toggles the post in the actor's saved set.
// @Summary Save or unsave a post
// @Tags posts
// @Security SessionCookie
// @Router /posts/{id}/save [post]
func Save(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		active, err := svc.SavePost(r.Context(), actorID, r.PathValue("id"))
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "saved": active})
	}
}

// Hide toggles the post in the actor's hidden set.
// @Summary Hide or unhide a post
// @Tags posts
// @Security SessionCookie
// @Router /posts/{id}/hide [post]
func Hide(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		active, err := svc.HidePost(r.Context(), actorID, r.PathValue("id"))
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "hidden": active})
	}
}
