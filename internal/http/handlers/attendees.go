package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/eventdesk/internal/domain/attendee"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/geocoder89/eventdesk/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttendeesStore interface {
	Register(ctx context.Context, req attendee.RegisterRequest) (attendee.Attendee, error)
	ListByEvent(ctx context.Context, eventID string) ([]attendee.Attendee, error)
	Update(ctx context.Context, id string, req attendee.UpdateRequest) (attendee.Attendee, error)
	TicketSales(ctx context.Context, eventID string) (capacity, sold int, err error)
}

type AttendeesHandler struct {
	repo AttendeesStore
	prom *observability.Prom
	log  *slog.Logger
}

func NewAttendeesHandler(repo AttendeesStore, prom *observability.Prom, log *slog.Logger) *AttendeesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AttendeesHandler{repo: repo, prom: prom, log: log}
}

func (h *AttendeesHandler) Register(ctx *gin.Context) {
	eventID := ctx.Param("id")
	if !utils.IsUUID(eventID) {
		RespondInvalidID(ctx)
		return
	}

	var req attendee.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		RespondBadRequest(ctx, "name required", nil)
		return
	}
	req.EventID = eventID

	a, err := h.repo.Register(ctx.Request.Context(), req)

	if err != nil {
		var capErr *attendee.CapacityError

		switch {
		case errors.As(err, &capErr):
			h.prom.ObserveRegistration("sold_out")
			RespondNotEnoughTickets(ctx, capErr.Available)
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		default:
			h.prom.ObserveRegistration("error")
			h.log.ErrorContext(ctx.Request.Context(), "attendees.register", "event_id", eventID, "err", err)
			RespondInternal(ctx, "Could not register attendee")
		}
		return
	}

	h.prom.ObserveRegistration("accepted")
	ctx.JSON(http.StatusCreated, a)
}

func (h *AttendeesHandler) ListByEvent(ctx *gin.Context) {
	eventID := ctx.Param("id")
	if !utils.IsUUID(eventID) {
		RespondInvalidID(ctx)
		return
	}

	items, err := h.repo.ListByEvent(ctx.Request.Context(), eventID)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "attendees.list", "event_id", eventID, "err", err)
		RespondInternal(ctx, "Could not list attendees")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// Update does not re-check the event capacity.
func (h *AttendeesHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondInvalidID(ctx)
		return
	}

	var req attendee.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Name != nil {
		n := strings.TrimSpace(*req.Name)
		if n == "" {
			RespondBadRequest(ctx, "name must not be empty", nil)
			return
		}
		req.Name = &n
	}

	a, err := h.repo.Update(ctx.Request.Context(), id, req)

	if err != nil {
		if errors.Is(err, attendee.ErrNotFound) {
			RespondNotFound(ctx, "Attendee not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "attendees.update", "attendee_id", id, "err", err)
		RespondInternal(ctx, "Could not update attendee")
		return
	}

	ctx.JSON(http.StatusOK, a)
}

func (h *AttendeesHandler) TicketsReport(ctx *gin.Context) {
	eventID := ctx.Param("id")
	if !utils.IsUUID(eventID) {
		RespondInvalidID(ctx)
		return
	}

	capacity, sold, err := h.repo.TicketSales(ctx.Request.Context(), eventID)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "attendees.tickets_report", "event_id", eventID, "err", err)
		RespondInternal(ctx, "Could not build tickets report")
		return
	}

	ctx.JSON(http.StatusOK, attendee.NewReport(capacity, sold, attendee.ParsePrice(ctx.Query("price"))))
}
