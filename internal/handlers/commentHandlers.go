package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"toolkithub/internal/models"
	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

type CommentHandler struct {
	service services.CommentService
}

func NewCommentHandler(service services.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) GetThreads(w http.ResponseWriter, r *http.Request) {
	toolID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	threads, err := h.service.GetThreads(r.Context(), toolID)
	if err != nil {
		writeServiceError(w, err, "GetThreads")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, threads)
}

func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	toolID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	var reqBody models.AddCommentRequestBody
	if !decodeJSON(w, r, &reqBody) {
		return
	}

	comment, err := h.service.AddComment(r.Context(), userID, toolID, reqBody)
	if err != nil {
		writeServiceError(w, err, "AddComment")
		return
	}

	log.Info().Str("commentID", comment.ID.Hex()).Str("toolID", toolID.Hex()).Msg("Comment added")
	utils.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	var reqBody models.UpdateCommentRequestBody
	if !decodeJSON(w, r, &reqBody) {
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), actorFrom(r), commentID, reqBody.Content)
	if err != nil {
		writeServiceError(w, err, "UpdateComment")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeleteComment(r.Context(), actorFrom(r), commentID); err != nil {
		writeServiceError(w, err, "DeleteComment")
		return
	}

	log.Info().Str("commentID", commentID.Hex()).Msg("Comment deleted")
	w.WriteHeader(http.StatusNoContent)
}
