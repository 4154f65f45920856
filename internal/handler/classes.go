package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/aulatrack/class-tracker/internal/errors"
	"github.com/aulatrack/class-tracker/internal/httputil"
	"github.com/aulatrack/class-tracker/internal/service"
)

type ClassHandler struct {
	classes *service.ClassService
}

func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

func (h *ClassHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/meetings", h.List)
	r.Get("/classes/{uuid}", h.Detail)
	r.Get("/classes/{uuid}/recording", h.Recording)
	return r
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.classes.ListBuckets(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list classes failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (h *ClassHandler) Detail(w http.ResponseWriter, r *http.Request) {
	zoomUUID, occurrenceID, ok := classKey(w, r)
	if !ok {
		return
	}

	detail, err := h.classes.GetDetail(r.Context(), zoomUUID, occurrenceID)
	if err != nil {
		log.Error().Str("uuid", zoomUUID).Err(err).Msg("class detail failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if detail == nil {
		httputil.WriteError(w, apperrors.NotFound("Class"))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ClassHandler) Recording(w http.ResponseWriter, r *http.Request) {
	zoomUUID, occurrenceID, ok := classKey(w, r)
	if !ok {
		return
	}

	view, err := h.classes.GetRecording(r.Context(), zoomUUID, occurrenceID)
	if err != nil {
		log.Error().Str("uuid", zoomUUID).Err(err).Msg("class recording failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if view == nil {
		httputil.WriteError(w, apperrors.NotFound("Class"))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// classKey extracts the session UUID path segment and optional
// occurrence_id query parameter. Zoom UUIDs contain URL-unsafe characters
// so clients send them percent-encoded.
func classKey(w http.ResponseWriter, r *http.Request) (string, *string, bool) {
	raw := chi.URLParam(r, "uuid")
	zoomUUID, err := url.PathUnescape(raw)
	if err != nil || zoomUUID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("uuid", "must be a percent-encoded meeting UUID"))
		return "", nil, false
	}

	var occurrenceID *string
	if v := r.URL.Query().Get("occurrence_id"); v != "" {
		occurrenceID = &v
	}
	return zoomUUID, occurrenceID, true
}
