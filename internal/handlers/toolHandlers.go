package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"toolkithub/internal/catalog"
	"toolkithub/internal/models"
	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

type ToolHandler struct {
	service   services.ToolService
	bookmarks services.BookmarkService
}

func NewToolHandler(service services.ToolService, bookmarks services.BookmarkService) *ToolHandler {
	return &ToolHandler{service: service, bookmarks: bookmarks}
}

// toolDetail is a tool as seen by a signed-in user.
type toolDetail struct {
	*models.Tool
	Bookmarked bool `json:"bookmarked"`
}

// parseFilter reads the list view state from the query string. Missing or
// malformed values fall back to their defaults.
func parseFilter(r *http.Request) catalog.Filter {
	q := r.URL.Query()

	f := catalog.Filter{
		Category:       strings.TrimSpace(q.Get("category")),
		Search:         q.Get("q"),
		FreeOnly:       parseBool(q.Get("free")),
		BookmarkedOnly: parseBool(q.Get("bookmarked")),
		Sort:           catalog.ParseSort(q.Get("sort")),
		Page:           1,
	}
	if f.Category == "" {
		f.Category = catalog.AllCategories
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		f.Page = page
	}
	return f
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	userID, _ := utils.UserIDFromContext(r.Context())

	page, err := h.service.ListTools(r.Context(), filter, userID)
	if err != nil {
		writeServiceError(w, err, "ListTools")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ToolHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, err, "GetSummary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *ToolHandler) GetTool(w http.ResponseWriter, r *http.Request) {
	toolID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	tool, err := h.service.GetTool(r.Context(), toolID)
	if err != nil {
		writeServiceError(w, err, "GetTool")
		return
	}

	userID, ok := utils.UserIDFromContext(r.Context())
	if !ok || h.bookmarks == nil {
		utils.RespondWithJSON(w, http.StatusOK, tool)
		return
	}
	bookmarked, err := h.bookmarks.IsBookmarked(r.Context(), userID, toolID)
	if err != nil {
		writeServiceError(w, err, "GetTool")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toolDetail{Tool: tool, Bookmarked: bookmarked})
}

func (h *ToolHandler) AddTool(w http.ResponseWriter, r *http.Request) {
	var reqBody models.AddToolRequestBody
	if !decodeJSON(w, r, &reqBody) {
		return
	}

	tool, err := h.service.AddTool(r.Context(), actorFrom(r), reqBody)
	if err != nil {
		writeServiceError(w, err, "AddTool")
		return
	}

	log.Info().Str("toolID", tool.ID.Hex()).Str("name", tool.Name).Msg("Tool added successfully")
	utils.RespondWithJSON(w, http.StatusCreated, tool)
}

func (h *ToolHandler) UpdateTool(w http.ResponseWriter, r *http.Request) {
	toolID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var reqBody models.UpdateToolRequestBody
	if !decodeJSON(w, r, &reqBody) {
		return
	}

	tool, err := h.service.UpdateTool(r.Context(), actorFrom(r), toolID, reqBody)
	if err != nil {
		writeServiceError(w, err, "UpdateTool")
		return
	}

	log.Info().Str("toolID", toolID.Hex()).Msg("Tool updated successfully")
	utils.RespondWithJSON(w, http.StatusOK, tool)
}

func (h *ToolHandler) DeleteTool(w http.ResponseWriter, r *http.Request) {
	toolID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	cascade := parseBool(r.URL.Query().Get("cascade"))

	if err := h.service.DeleteTool(r.Context(), actorFrom(r), toolID, cascade); err != nil {
		writeServiceError(w, err, "DeleteTool")
		return
	}

	log.Info().Str("toolID", toolID.Hex()).Bool("cascade", cascade).Msg("Tool deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}
