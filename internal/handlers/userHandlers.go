package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (u *UserHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	user, err := u.userService.GetUserProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "GetMyProfile")
		return
	}

	log.Info().Str("userID", userID.Hex()).Msg("User profile retrieved")
	utils.RespondWithJSON(w, http.StatusOK, user)
}
