package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/eventdesk/internal/cache"
	"github.com/geocoder89/eventdesk/internal/dates"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	"github.com/geocoder89/eventdesk/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type EventsStore interface {
	Create(ctx context.Context, e event.Event) (event.Event, error)
	List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, int, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	Update(ctx context.Context, id string, p event.Patch) (event.Event, error)
	Delete(ctx context.Context, id string) error
}

type EventsHandler struct {
	repo  EventsStore
	cache cache.Store
	log   *slog.Logger
}

type listEventsResponse struct {
	Items  []event.Event `json:"items"`
	Count  int           `json:"count"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// c may be nil, which disables list caching.
func NewEventsHandler(repo EventsStore, c cache.Store, log *slog.Logger) *EventsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventsHandler{repo: repo, cache: c, log: log}
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		RespondBadRequest(ctx, "title required", nil)
		return
	}

	date, err := dates.ParseISO(req.Date)
	if err != nil {
		RespondBadRequest(ctx, "invalid date format", gin.H{"date": req.Date})
		return
	}

	created, err := h.repo.Create(ctx.Request.Context(), event.NewFromCreateRequest(req, date))

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "events.create", "err", err)
		RespondInternal(ctx, "Could not create event")
		return
	}

	h.purgeList(ctx.Request.Context())
	ctx.JSON(http.StatusCreated, created)
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	filter, ok := parseListFilter(ctx)
	if !ok {
		return
	}

	key := utils.BuildEventsListCacheKey(filter.Search, filter.From, filter.Limit, filter.Offset)

	if h.cache != nil {
		cached, err := h.cache.Get(ctx.Request.Context(), key)
		if err == nil && json.Valid(cached) {
			RespondRawJSONWithETag(ctx, http.StatusOK, cached)
			return
		} else if err != nil && !errors.Is(err, cache.ErrMiss) {
			h.log.WarnContext(ctx.Request.Context(), "events.list.cache_get", "err", err)
		}
	}

	items, total, err := h.repo.List(ctx.Request.Context(), filter)

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "events.list", "err", err)
		RespondInternal(ctx, "Could not list events")
		return
	}

	resp := listEventsResponse{
		Items:  items,
		Count:  len(items),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	b, err := json.Marshal(resp)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "events.list.encode", "err", err)
		RespondInternal(ctx, "Could not list events")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx.Request.Context(), key, b); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "events.list.cache_set", "err", err)
		}
	}

	RespondRawJSONWithETag(ctx, http.StatusOK, b)
}

// parseListFilter reads search, date, limit and offset. An unparseable date is
// ignored rather than rejected.
func parseListFilter(ctx *gin.Context) (event.ListEventsFilter, bool) {
	filter := event.ListEventsFilter{Limit: defaultListLimit}

	if s := strings.TrimSpace(ctx.Query("search")); s != "" {
		filter.Search = &s
	}

	if raw := strings.TrimSpace(ctx.Query("date")); raw != "" {
		if from, err := dates.ParseISO(raw); err == nil {
			filter.From = &from
		}
	}

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			RespondBadRequest(ctx, "limit must be between 1 and 100", gin.H{"limit": raw})
			return filter, false
		}
		filter.Limit = n
	}

	if raw := ctx.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondBadRequest(ctx, "offset must be a non-negative integer", gin.H{"offset": raw})
			return filter, false
		}
		filter.Offset = n
	}

	return filter, true
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondInvalidID(ctx)
		return
	}

	e, err := h.repo.GetByID(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "events.get", "err", err)
		RespondInternal(ctx, "Could not fetch event")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, e)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondInvalidID(ctx)
		return
	}

	var req event.UpdateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	patch := event.Patch{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Capacity:    req.Capacity,
	}

	// an empty date keeps the stored one
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		d, err := dates.ParseISO(*req.Date)
		if err != nil {
			RespondBadRequest(ctx, "invalid date format", gin.H{"date": *req.Date})
			return
		}
		d = d.UTC()
		patch.Date = &d
	}

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			RespondBadRequest(ctx, "title must not be empty", nil)
			return
		}
		patch.Title = &t
	}

	updated, err := h.repo.Update(ctx.Request.Context(), id, patch)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "events.update", "err", err)
		RespondInternal(ctx, "Could not update event")
		return
	}

	h.purgeList(ctx.Request.Context())
	ctx.JSON(http.StatusOK, updated)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondInvalidID(ctx)
		return
	}

	err := h.repo.Delete(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "events.delete", "err", err)
		RespondInternal(ctx, "Could not delete event")
		return
	}

	h.purgeList(ctx.Request.Context())
	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *EventsHandler) purgeList(ctx context.Context) {
	purgeCache(ctx, h.cache, h.log)
}

// purgeCache drops every cached list. A failed purge still leaves entries to
// expire on their TTL.
func purgeCache(ctx context.Context, c cache.Store, log *slog.Logger) {
	if c == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := c.Purge(ctx); err != nil {
		log.WarnContext(ctx, "events.list.cache_purge", "err", err)
	}
}
