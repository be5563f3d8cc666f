package comments

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tiktalkapp/tiktalk-service/internal/feed"
	"github.com/tiktalkapp/tiktalk-service/internal/http/middleware"
	"github.com/tiktalkapp/tiktalk-service/internal/render"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
	"github.com/tiktalkapp/tiktalk-service/internal/utils/response"
)

type contentRequest struct {
	Content string `json:"content"`
}

func decodeContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return "", false
	}
	return req.Content, true
}

// Add appends a comment to a post and responds with the rendered fragment
// the client inserts in place, annotated for the acting viewer.
// @Summary Add a comment
// @Tags comments
// @Param id path string true "Post ID"
// @Security SessionCookie
// @Router /posts/{id}/comments [post]
func Add(svc *feed.Service, renderer *render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())
		content, ok := decodeContent(w, r)
		if !ok {
			return
		}

		view, err := svc.AddComment(r.Context(), actorID, r.PathValue("id"), content)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		html, err := renderer.Render("comment", view)
		if err != nil {
			slog.Error("failed to render comment fragment", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to render comment")))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.Response{Success: true, HTML: html})
	}
}

// Edit updates a comment's content; only the author may edit.
// @Summary Edit a comment
// @Tags comments
// @Security SessionCookie
// @Router /posts/{id}/comments/{commentID} [put]
func Edit(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())
		content, ok := decodeContent(w, r)
		if !ok {
			return
		}

		if err := svc.EditComment(r.Context(), actorID, r.PathValue("id"), r.PathValue("commentID"), content); err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("comment updated successfully", nil))
	}
}

// Delete removes a comment and all its replies as a unit.
// @Summary Delete a comment
// @Tags comments
// @Security SessionCookie
// @Router /posts/{id}/comments/{commentID} [delete]
func Delete(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		if err := svc.DeleteComment(r.Context(), actorID, r.PathValue("id"), r.PathValue("commentID")); err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("comment deleted successfully", nil))
	}
}

// React toggles the actor's like or dislike on a comment.
// @Summary React to a comment
// @Tags comments
// @Security SessionCookie
// @Router /posts/{id}/comments/{commentID}/like [post]
func React(svc *feed.Service, polarity types.Polarity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		result, err := svc.ReactToComment(r.Context(), actorID, r.PathValue("id"), r.PathValue("commentID"), polarity)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.ReactionPayload(polarity, result))
	}
}

// AddReply appends a reply to a comment and responds with the rendered
// fragment, annotated for the acting viewer.
// @Summary Reply to a comment
// @Tags replies
// @Security SessionCookie
// @Router /posts/{id}/comments/{commentID}/replies [post]
func AddReply(svc *feed.Service, renderer *render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())
		content, ok := decodeContent(w, r)
		if !ok {
			return
		}

		view, err := svc.AddReply(r.Context(), actorID, r.PathValue("id"), r.PathValue("commentID"), content)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		html, err := renderer.Render("reply", view)
		if err != nil {
			slog.Error("failed to render reply fragment", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to render reply")))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.Response{Success: true, HTML: html})
	}
}

// EditReply updates a reply's content; only the author may edit.
// @Summary Edit a reply
// @Tags replies
// @Security SessionCookie
// @Router /posts/{id}/comments/{commentID}/replies/{replyID} [put]
func EditReply(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())
		content, ok := decodeContent(w, r)
		if !ok {
			return
		}

		err := svc.EditReply(r.Context(), actorID, r.PathValue("id"), r.PathValue("commentID"), r.PathValue("replyID"), content)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("reply updated successfully", nil))
	}
}

// DeleteReply removes a single reply.
// @Summary Delete a reply
// @Tags replies
// @Security SessionCookie
// @Router /posts/{id}/comments/{commentID}/replies/{replyID} [delete]
func DeleteReply(svc *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		err := svc.DeleteReply(r.Context(), actorID, r.PathValue("id"), r.PathValue("commentID"), r.PathValue("replyID"))
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("reply deleted successfully", nil))
	}
}

// ReactReply toggles the actor's like or dislike on a reply.
// @Summary React to a reply
// @Tags replies
// @Security SessionCookie
// @Router /posts/{id}/comments/{commentID}/replies/{replyID}/like [post]
func ReactReply(svc *feed.Service, polarity types.Polarity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := middleware.GetUserIDFromContext(r.Context())

		result, err := svc.ReactToReply(r.Context(), actorID, r.PathValue("id"), r.PathValue("commentID"), r.PathValue("replyID"), polarity)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.ReactionPayload(polarity, result))
	}
}
