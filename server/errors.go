package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gauravRathod674/OtakuRealm/history"
	"github.com/gauravRathod674/OtakuRealm/internal/aggregate"
	"github.com/gauravRathod674/OtakuRealm/internal/fetch"
	"github.com/gauravRathod674/OtakuRealm/internal/parser"
	"github.com/gauravRathod674/OtakuRealm/log"
	"github.com/gauravRathod674/OtakuRealm/service"
)

// Error codes of the JSON error body.
const (
	CodeInvalidInput  = "invalid_input"
	CodeUnauthorized  = "unauthorized"
	CodeNotFound      = "not_found"
	CodeRenderTimeout = "render_timeout"
	CodeUpstream      = "upstream_unavailable"
	CodeMalformedPage = "malformed_page"
	CodeNoContent     = "no_content"
	CodeInternal      = "internal"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// classify maps err to a status and an error code.
// Render timeouts are checked before transport failures.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, history.ErrGuest):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, fetch.ErrRenderTimeout):
		return http.StatusGatewayTimeout, CodeRenderTimeout
	case errors.Is(err, fetch.ErrTransport):
		return http.StatusBadGateway, CodeUpstream
	case errors.Is(err, parser.ErrMalformedPage):
		return http.StatusBadGateway, CodeMalformedPage
	case errors.Is(err, service.ErrNoPlayer), errors.Is(err, service.ErrNoImages):
		return http.StatusBadGateway, CodeNoContent
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	fields := log.Fields{"request_id": RequestID(r.Context()), "code": code}
	var primary *aggregate.PrimaryError
	if errors.As(err, &primary) {
		fields["branch"] = primary.Branch
	}

	if status >= http.StatusInternalServerError {
		log.WithFields(fields).Errorf("%s %s: %s", r.Method, r.URL.Path, err)
	} else {
		log.WithFields(fields).Debugf("%s %s: %s", r.Method, r.URL.Path, err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = err.Error()

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("encode response: %s", err)
	}
}
