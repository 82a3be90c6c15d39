package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campushub/campusevents/internal/cache"
	"github.com/campushub/campusevents/internal/config"
	"github.com/campushub/campusevents/internal/domain/event"
	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/campushub/campusevents/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const maxImageBytes = 5 << 20

type EventsStore interface {
	Create(ctx context.Context, e event.Event, mainImage, qrImage *event.Image) (event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	ListCursor(ctx context.Context, filter event.ListEventsFilter, cursor *utils.EventCursor) ([]event.Event, *utils.EventCursor, error)
	Update(ctx context.Context, e event.Event, mainImage, qrImage *event.Image) (event.Event, error)
	Delete(ctx context.Context, id string) error
	GetImage(ctx context.Context, id, which string) (event.Image, error)
}

type ActorStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type EventsHandler struct {
	events EventsStore
	actors ActorStore
	cache  *cache.Cache
}

func NewEventsHandler(events EventsStore, actors ActorStore, listCache *cache.Cache) *EventsHandler {
	return &EventsHandler{
		events: events,
		actors: actors,
		cache:  listCache,
	}
}

// loadAuthorizedActor checks the DB flags rather than trusting the token:
// a student whose canAddEvent was revoked loses write access immediately.
func (h *EventsHandler) loadAuthorizedActor(ctx *gin.Context) (user.User, bool) {
	id := actorID(ctx)

	if id == "" {
		RespondUnauthorized(ctx, "Missing identity context")
		return user.User{}, false
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	actor, err := h.actors.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "User no longer exists.")
			return user.User{}, false
		}

		RespondInternal(ctx, "Could not load user")
		return user.User{}, false
	}

	if actor.Role != user.RoleFaculty && !actor.CanAddEvent {
		RespondForbidden(ctx, "Faculty verification is required to manage events.")
		return user.User{}, false
	}

	return actor, true
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	actor, ok := h.loadAuthorizedActor(ctx)

	if !ok {
		return
	}

	req, mainImage, qrImage, ok := h.bindEventRequest(ctx)

	if !ok {
		return
	}

	e := event.NewFromCreateRequest(req, actor.Name, actor.Role)

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	created, err := h.events.Create(cctx, e, mainImage, qrImage)

	if err != nil {
		RespondInternal(ctx, "Could not create event")
		return
	}

	h.invalidateLists()

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Event created.",
		"event":   created,
	})
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	filter := event.ListEventsFilter{Today: time.Now().UTC()}

	if v := ctx.Query("title"); v != "" {
		filter.Title = &v
	}
	if v := ctx.Query("department"); v != "" {
		filter.Department = &v
	}
	if v := ctx.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := ctx.Query("eventType"); v != "" {
		if v != "ongoing" && v != "upcoming" && v != "past" {
			RespondBadRequest(ctx, "eventType must be ongoing, upcoming or past", nil)
			return
		}
		filter.EventType = &v
	}
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			RespondBadRequest(ctx, "limit must be a positive integer", nil)
			return
		}
		filter.Limit = n
	}

	var cursor *utils.EventCursor

	if raw := ctx.Query("cursor"); raw != "" {
		c, err := utils.DecodeEventCursor(raw)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", nil)
			return
		}
		cursor = &c
	}

	cacheKey := "events:" + ctx.Request.URL.RawQuery

	if h.cache != nil {
		if payload, ok := h.cache.Get(cacheKey); ok {
			RespondJSONWithETag(ctx, http.StatusOK, payload)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	items, next, err := h.events.ListCursor(cctx, filter, cursor)

	if err != nil {
		RespondInternal(ctx, "Could not list events")
		return
	}

	payload := gin.H{
		"success": true,
		"events":  items,
	}

	if next != nil {
		encoded, err := utils.EncodeEventCursor(*next)
		if err == nil {
			payload["nextCursor"] = encoded
		}
	}

	if h.cache != nil {
		h.cache.Set(cacheKey, payload)
	}

	RespondJSONWithETag(ctx, http.StatusOK, payload)
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	e, err := h.events.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found.")
			return
		}

		RespondInternal(ctx, "Could not load event")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"event":   e,
	})
}

func (h *EventsHandler) GetEventImage(ctx *gin.Context) {
	which := ctx.DefaultQuery("which", "main")

	if which != "main" && which != "qr" {
		RespondBadRequest(ctx, "which must be main or qr", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	img, err := h.events.GetImage(cctx, ctx.Param("id"), which)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Image not found.")
			return
		}

		RespondInternal(ctx, "Could not load image")
		return
	}

	ctx.Data(http.StatusOK, img.ContentType, img.Data)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	actor, ok := h.loadAuthorizedActor(ctx)

	if !ok {
		return
	}

	req, mainImage, qrImage, ok := h.bindEventRequest(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	existing, err := h.events.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found.")
			return
		}

		RespondInternal(ctx, "Could not load event")
		return
	}

	date, _ := time.Parse("2006-01-02", req.Date)

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Date = date
	existing.Time = req.Time
	existing.Venue = req.Venue
	existing.Departments = orEmpty(req.Departments)
	existing.Categories = orEmpty(req.Categories)
	existing.Organizers = orEmpty(req.Organizers)
	existing.ContactEmail = req.ContactEmail
	existing.ContactPhone = req.ContactPhone
	existing.GoogleForm = req.GoogleForm
	existing.VolunteerForm = req.VolunteerForm
	existing.UpdatedBy = &actor.Name

	updated, err := h.events.Update(cctx, existing, mainImage, qrImage)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found.")
			return
		}

		RespondInternal(ctx, "Could not update event")
		return
	}

	h.invalidateLists()

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Event updated.",
		"event":   updated,
	})
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	if _, ok := h.loadAuthorizedActor(ctx); !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	err := h.events.Delete(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found.")
			return
		}

		RespondInternal(ctx, "Could not delete event")
		return
	}

	h.invalidateLists()

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Event deleted.",
	})
}

// bindEventRequest accepts either a JSON body or multipart/form-data with
// optional mainImage / qrImage file parts.
func (h *EventsHandler) bindEventRequest(ctx *gin.Context) (event.CreateEventRequest, *event.Image, *event.Image, bool) {
	var req event.CreateEventRequest

	ct := strings.ToLower(ctx.GetHeader("Content-Type"))

	if !strings.HasPrefix(ct, "multipart/form-data") {
		if !BindJSON(ctx, &req) {
			return req, nil, nil, false
		}
		return req, nil, nil, true
	}

	req = event.CreateEventRequest{
		Title:         ctx.PostForm("title"),
		Description:   ctx.PostForm("description"),
		Date:          ctx.PostForm("date"),
		Time:          ctx.PostForm("time"),
		Venue:         ctx.PostForm("venue"),
		Departments:   ctx.PostFormArray("departments"),
		Categories:    ctx.PostFormArray("categories"),
		Organizers:    ctx.PostFormArray("organizers"),
		ContactEmail:  ctx.PostForm("contactEmail"),
		ContactPhone:  ctx.PostForm("contactPhone"),
		GoogleForm:    ctx.PostForm("googleForm"),
		VolunteerForm: ctx.PostForm("volunteerForm"),
	}

	if err := binding.Validator.ValidateStruct(&req); err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err, &req))
		return req, nil, nil, false
	}

	mainImage, ok := h.readImagePart(ctx, "mainImage")
	if !ok {
		return req, nil, nil, false
	}

	qrImage, ok := h.readImagePart(ctx, "qrImage")
	if !ok {
		return req, nil, nil, false
	}

	return req, mainImage, qrImage, true
}

func (h *EventsHandler) readImagePart(ctx *gin.Context, name string) (*event.Image, bool) {
	fh, err := ctx.FormFile(name)

	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		RespondBadRequest(ctx, "Invalid "+name+" upload", nil)
		return nil, false
	}

	if fh.Size > maxImageBytes {
		RespondBadRequest(ctx, name+" exceeds the 5MB limit", nil)
		return nil, false
	}

	data, contentType, err := readMultipartFile(fh)

	if err != nil {
		RespondBadRequest(ctx, "Could not read "+name, nil)
		return nil, false
	}

	return &event.Image{Data: data, ContentType: contentType}, true
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()

	if err != nil {
		return nil, "", err
	}

	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))

	if err != nil {
		return nil, "", err
	}

	contentType := fh.Header.Get("Content-Type")

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return data, contentType, nil
}

func (h *EventsHandler) invalidateLists() {
	if h.cache != nil {
		h.cache.Clear()
	}
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
