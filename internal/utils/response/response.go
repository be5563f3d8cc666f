package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/tiktalkapp/tiktalk-service/internal/feed"
	"github.com/tiktalkapp/tiktalk-service/internal/types"
)

type Response struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	HTML    string      `json:"html,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errorMessages string
	for _, err := range errs {
		errorMessages += err.Field() + ": " + err.Tag() + "; "
	}

	return Response{
		Success: false,
		Error:   errorMessages,
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// ReactionPayload shapes a reaction result for the wire: like endpoints
// report "liked", dislike endpoints report "disliked".
func ReactionPayload(polarity types.Polarity, res feed.ReactionResult) map[string]any {
	key := "liked"
	if polarity == types.PolarityDislike {
		key = "disliked"
	}
	return map[string]any{
		"success":       true,
		key:             res.Active,
		"likesCount":    res.LikesCount,
		"dislikesCount": res.DislikesCount,
	}
}

// StatusCode maps the core error taxonomy onto HTTP status codes. Anything
// outside the taxonomy is an internal error.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, feed.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, feed.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, feed.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, feed.ErrInvalidInput), errors.Is(err, feed.ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps and writes a core error; store failures are masked with a
// generic message so internals never leak to the client.
func WriteError(w http.ResponseWriter, err error) error {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		return WriteJSON(w, status, GeneralError(errors.New("internal server error")))
	}
	return WriteJSON(w, status, GeneralError(err))
}
