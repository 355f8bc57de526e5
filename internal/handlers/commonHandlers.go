package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"toolkithub/internal/database"
	"toolkithub/internal/services"
	"toolkithub/internal/utils"
	"toolkithub/internal/validation"
)

// maxBodyBytes bounds JSON request bodies. Imports use maxImportBytes.
const maxBodyBytes = 1 << 20

type CommonHandler struct {
	db database.Service
}

func NewCommonHandler(db database.Service) *CommonHandler {
	return &CommonHandler{db: db}
}

func (h *CommonHandler) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Tech Toolkit Hub"})
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := h.db.Health()
	status := http.StatusOK
	if _, down := health["error"]; down {
		status = http.StatusServiceUnavailable
	}
	utils.RespondWithJSON(w, status, health)
}

// decodeJSON decodes the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Invalid JSON request body")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// actorFrom builds the write actor from whatever identities the auth
// middleware attached.
func actorFrom(r *http.Request) services.Actor {
	userID, _ := utils.UserIDFromContext(r.Context())
	return services.Actor{UserID: userID, IsAdmin: utils.IsAdmin(r.Context())}
}

// serviceErrorStatus maps a service error to its HTTP status and the message
// safe to show the caller.
func serviceErrorStatus(err error, op string) (int, string) {
	status := http.StatusInternalServerError
	switch {
	case validation.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrUnavailable):
		status = http.StatusServiceUnavailable
	default:
		log.Error().Err(err).Str("op", op).Msg("Unhandled service error")
		return status, "Internal server error"
	}
	log.Warn().Err(err).Str("op", op).Msg("Request rejected")
	return status, err.Error()
}

// writeServiceError writes the mapped status with an {"error": ...} body.
// Validation failures also carry their per-field messages.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	status, msg := serviceErrorStatus(err, op)
	var ve *validation.Error
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		utils.RespondWithJSON(w, status, map[string]interface{}{"error": msg, "fields": ve.Fields})
		return
	}
	utils.SendJSONError(w, msg, status)
}
