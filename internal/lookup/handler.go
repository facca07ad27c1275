package lookup

import (
	"encoding/json"
	"errors"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves GET /products?ean=<code>.
func Handler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}

		product, source, err := svc.Find(r.Context(), r.URL.Query().Get("ean"))
		switch {
		case errors.Is(err, ErrEmptyEAN):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		case errors.Is(err, ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		case err != nil:
			svc.logger().WithError(err).Error("lookup failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "lookup failed"})
			return
		}

		w.Header().Set("X-Lookup-Source", string(source))
		writeJSON(w, http.StatusOK, product)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}
