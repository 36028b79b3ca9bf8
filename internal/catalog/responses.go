// responses.go -- Package-wide HTTP response helpers.
//
// HTML handlers answer with the error page; JSON handlers with {"message": ...}.
// Neither exposes internal error details.
package catalog

import (
	"encoding/json"
	"net/http"
)

// internalError logs err and renders a generic 500 page.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, "internal server error", "error", err)
	h.errorPage(w, r, http.StatusInternalServerError, "Something went wrong on our side.")
}

// notFound renders the 404 page.
func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusNotFound, "We could not find that page.")
}

// errorPage renders error.html with status and a generic message.
func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error.html", &page{Status: status, Message: message})
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logWarn(r, "failed to encode json response", "error", err)
	}
}

// jsonMessage returns {"message": msg} with the given status.
// msg is always a fixed string, never user input.
func jsonMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"message":"` + msg + `"}`))
}

// jsonInternalError logs err and returns a generic 500 JSON response.
func jsonInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, "internal server error", "error", err)
	jsonMessage(w, http.StatusInternalServerError, "internal server error")
}
