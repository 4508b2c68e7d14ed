package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/go-chi/chi/v5"
)

// MediaHandler serves uploaded event images.
//
//	@Summary		Get event image
//	@Tags			Media
//	@Produce		image/png,image/jpeg,image/webp,image/gif
//	@Param			id	path	string	true	"Image ID"
//	@Success		200	{file}	binary
//	@Failure		404	{object}	httpx.ErrorBody	"not_found"
//	@Router			/media/{id} [get].
func MediaHandler(events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := events.Image(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) {
			campussdk.ErrNotFound.WriteError(w)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		// Image ids are never reused, so the bytes behind one never change.
		w.Header().Set("Content-Type", img.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(img.Data)
	}
}
