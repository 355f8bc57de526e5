package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"toolkithub/internal/models"
	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

type CategoryHandler struct {
	service services.CategoryService
}

func NewCategoryHandler(service services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if !decodeJSON(w, r, &category) {
		return
	}

	addedCategory, err := h.service.AddCategory(r.Context(), category.Name)
	if err != nil {
		writeServiceError(w, err, "AddCategory")
		return
	}

	log.Info().Str("category_id", addedCategory.ID.Hex()).Str("category_name", addedCategory.Name).Msg("Category added successfully")
	utils.RespondWithJSON(w, http.StatusCreated, addedCategory)
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GetCategories(r.Context())
	if err != nil {
		writeServiceError(w, err, "GetCategories")
		return
	}

	log.Debug().Int("count", len(categories)).Msg("Categories retrieved successfully")
	utils.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	category, err := h.service.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		writeServiceError(w, err, "GetCategoryByID")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var update models.CategoryUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), categoryID, update)
	if err != nil {
		writeServiceError(w, err, "UpdateCategory")
		return
	}

	log.Info().Str("category_id", categoryID.Hex()).Msg("Category updated successfully")
	utils.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), categoryID); err != nil {
		writeServiceError(w, err, "DeleteCategory")
		return
	}

	log.Info().Str("category_id", categoryID.Hex()).Msg("Category deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}
