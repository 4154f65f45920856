package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/aulatrack/class-tracker/internal/errors"
	"github.com/aulatrack/class-tracker/internal/httputil"
	"github.com/aulatrack/class-tracker/internal/service"
	"github.com/aulatrack/class-tracker/internal/util"
)

type AdminHandler struct {
	admin        *service.AdminService
	passwordHash string
}

func NewAdminHandler(admin *service.AdminService, passwordHash string) *AdminHandler {
	return &AdminHandler{admin: admin, passwordHash: passwordHash}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.requirePassword)
	r.Post("/backfill-supervisor-urls", h.BackfillSupervisorURLs)
	return r
}

func (h *AdminHandler) requirePassword(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.passwordHash == "" {
			httputil.WriteError(w, apperrors.Forbidden("Admin endpoints are disabled"))
			return
		}

		password, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !util.CheckPasswordHash(password, h.passwordHash) {
			httputil.WriteError(w, apperrors.Unauthorized("Invalid admin credentials"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) BackfillSupervisorURLs(w http.ResponseWriter, r *http.Request) {
	updated, err := h.admin.BackfillSupervisorURLs(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("supervisor url backfill failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
