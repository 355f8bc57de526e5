package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

type BookmarkHandler struct {
	service services.BookmarkService
}

func NewBookmarkHandler(service services.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{service: service}
}

func (h *BookmarkHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	toolID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	result, err := h.service.Toggle(r.Context(), userID, toolID)
	if err != nil {
		writeServiceError(w, err, "ToggleBookmark")
		return
	}

	log.Info().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Bool("bookmarked", result.Bookmarked).Msg("Bookmark toggled")
	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *BookmarkHandler) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	tools, err := h.service.GetBookmarkedTools(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "GetBookmarks")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, tools)
}
