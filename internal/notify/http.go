// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/scholaris/internal/platform/request"
	"github.com/taibuivan/scholaris/internal/platform/respond"
	"github.com/taibuivan/scholaris/pkg/pagination"
)

// Handler implements the HTTP layer for the caller's inbox.
type Handler struct {
	service *Service
}

// NewHandler constructs a new inbox [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /notifications router. Mount it behind middleware.RequireAuth.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/unread-count", handler.unreadCount)
	router.Put("/mark-all-read", handler.markAllRead)
	router.Put("/{id}", handler.markRead)
	router.Delete("/{id}", handler.remove)

	return router
}

/*
GET /api/v1/notifications.

Description: Lists the caller's notifications, newest first.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromValues(request.URL.Query())
	notifications, total, err := handler.service.List(request.Context(), userID, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, notifications, pagination.NewMeta(page.Page, page.Limit, total))
}

// GET /api/v1/notifications/unread-count.
func (handler *Handler) unreadCount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	count, err := handler.service.UnreadCount(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int{"count": count})
}

// PUT /api/v1/notifications/mark-all-read.
func (handler *Handler) markAllRead(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	changed, err := handler.service.MarkAllRead(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int{"updated": changed})
}

/*
PUT /api/v1/notifications/{id}.

Description: Marks one of the caller's notifications as read.

Response:
  - 204: Marked
  - 404: NOT_FOUND: Missing or owned by someone else
*/
func (handler *Handler) markRead(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.MarkRead(request.Context(), userID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/notifications/{id}.
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), userID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
