package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"toolkithub/internal/config"
	"toolkithub/internal/middlewares"
	"toolkithub/internal/models"
	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

const maxImportBytes = 16 << 20

type AdminHandler struct {
	adminService    services.AdminService
	transferService services.TransferService
	secureCookie    bool
}

func NewAdminHandler(adminService services.AdminService, transferService services.TransferService, secureCookie bool) *AdminHandler {
	return &AdminHandler{adminService: adminService, transferService: transferService, secureCookie: secureCookie}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var reqBody models.AdminLoginRequestBody
	if !decodeJSON(w, r, &reqBody) {
		return
	}

	session, err := h.adminService.Login(r.Context(), reqBody, r.RemoteAddr)
	if err != nil {
		writeServiceError(w, err, "AdminLogin")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middlewares.AdminSessionCookie,
		Value:    session.Token,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(config.AdminSessionTTL / time.Second),
		Path:     "/",
	})
	utils.RespondWithJSON(w, http.StatusOK, session)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middlewares.AdminSessionCookie,
		Value:    "",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the expiry of the presented admin session.
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.adminService.Validate(middlewares.AdminToken(r))
	if err != nil {
		writeServiceError(w, err, "AdminSession")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, session)
}

func (h *AdminHandler) ExportTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.transferService.Export(r.Context())
	if err != nil {
		writeServiceError(w, err, "ExportTools")
		return
	}

	filename := fmt.Sprintf("tools-%s.json", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	log.Info().Int("count", len(tools)).Msg("Tools exported")
	utils.RespondWithJSON(w, http.StatusOK, tools)
}

func (h *AdminHandler) ImportTools(w http.ResponseWriter, r *http.Request) {
	mode := models.ImportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = models.ImportAppend
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		utils.SendJSONError(w, "Could not read import body: "+err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.transferService.Import(r.Context(), data, mode)
	if err != nil {
		if report == nil {
			writeServiceError(w, err, "ImportTools")
			return
		}
		status, msg := serviceErrorStatus(err, "ImportTools")
		utils.RespondWithJSON(w, status, map[string]interface{}{"error": msg, "report": report})
		return
	}

	log.Info().Str("mode", string(mode)).Int("inserted", report.Inserted).Int("deleted", report.Deleted).Int("invalid", len(report.Invalid)).Msg("Tools imported")
	utils.RespondWithJSON(w, http.StatusOK, report)
}
