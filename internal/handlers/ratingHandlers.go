package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"toolkithub/internal/models"
	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

type RatingHandler struct {
	service services.RatingService
}

func NewRatingHandler(service services.RatingService) *RatingHandler {
	return &RatingHandler{service: service}
}

// ids resolves the caller and the tool in the path, writing the error
// response itself when either is missing.
func (h *RatingHandler) ids(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, primitive.ObjectID, bool) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	toolID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, toolID, true
}

func (h *RatingHandler) GetMyRating(w http.ResponseWriter, r *http.Request) {
	userID, toolID, ok := h.ids(w, r)
	if !ok {
		return
	}

	rating, err := h.service.GetMyRating(r.Context(), userID, toolID)
	if err != nil {
		writeServiceError(w, err, "GetMyRating")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rating)
}

func (h *RatingHandler) AddRating(w http.ResponseWriter, r *http.Request) {
	userID, toolID, ok := h.ids(w, r)
	if !ok {
		return
	}
	var reqBody models.RatingRequestBody
	if !decodeJSON(w, r, &reqBody) {
		return
	}

	result, err := h.service.AddRating(r.Context(), userID, toolID, reqBody.Rating)
	if err != nil {
		writeServiceError(w, err, "AddRating")
		return
	}

	log.Info().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Float64("rating", reqBody.Rating).Msg("Rating added")
	utils.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *RatingHandler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	userID, toolID, ok := h.ids(w, r)
	if !ok {
		return
	}
	var reqBody models.RatingRequestBody
	if !decodeJSON(w, r, &reqBody) {
		return
	}

	result, err := h.service.UpdateRating(r.Context(), userID, toolID, reqBody.Rating)
	if err != nil {
		writeServiceError(w, err, "UpdateRating")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *RatingHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	userID, toolID, ok := h.ids(w, r)
	if !ok {
		return
	}

	result, err := h.service.DeleteRating(r.Context(), userID, toolID)
	if err != nil {
		writeServiceError(w, err, "DeleteRating")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}
