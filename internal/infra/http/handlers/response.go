package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []usecase.ValidationError `json:"fields,omitempty"`
}

var statusByCode = map[string]int{
	usecase.CodeNotFound:          http.StatusNotFound,
	usecase.CodeDuplicatePhone:    http.StatusConflict,
	usecase.CodeAlreadyCalled:     http.StatusConflict,
	usecase.CodeConflict:          http.StatusConflict,
	usecase.CodeInvalidTransition: http.StatusConflict,
	usecase.CodeInvalidInput:      http.StatusUnprocessableEntity,
	usecase.CodePermissionDenied:  http.StatusForbidden,
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps use-case errors onto HTTP statuses. Technical errors are
// logged and reported without their cause.
func writeError(w http.ResponseWriter, log *logrus.Logger, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, ErrorResponse{Error: de.Code, Message: de.Message, Fields: de.Fields})
		return
	}

	code := usecase.ErrorCode(err)
	log.WithError(err).WithField("code", code).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: code, Message: "internal error"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_JSON",
			Message: fmt.Sprintf("invalid JSON body: %v", err),
		})
		return false
	}
	return true
}

func actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (usecase.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHENTICATED", Message: "authentication required"})
	}
	return actor, ok
}
