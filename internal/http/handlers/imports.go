package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/geocoder89/eventdesk/internal/cache"
	"github.com/geocoder89/eventdesk/internal/importer"
	"github.com/gin-gonic/gin"
)

type EventImporter interface {
	Import(ctx context.Context, r io.Reader) importer.Result
}

type ImportsHandler struct {
	importer EventImporter
	cache    cache.Store
	log      *slog.Logger
}

func NewImportsHandler(im EventImporter, c cache.Store, log *slog.Logger) *ImportsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ImportsHandler{importer: im, cache: c, log: log}
}

// ImportEvents reads the multipart "file" field as CSV. Row problems are
// reported in the result body, never as an HTTP error.
func (h *ImportsHandler) ImportEvents(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "file too large", gin.H{"limit": tooLarge.Limit})
			return
		}
		RespondBadRequest(ctx, "file missing", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "import.open", "err", err)
		RespondInternal(ctx, "Could not read upload")
		return
	}
	defer f.Close()

	res := h.importer.Import(ctx.Request.Context(), f)

	if res.Created > 0 {
		purgeCache(ctx.Request.Context(), h.cache, h.log)
	}

	ctx.JSON(http.StatusOK, res)
}
