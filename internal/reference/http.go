// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/scholaris/internal/platform/middleware"
	requestutil "github.com/taibuivan/scholaris/internal/platform/request"
	"github.com/taibuivan/scholaris/internal/platform/respond"
	"github.com/taibuivan/scholaris/internal/platform/sec"
	"github.com/taibuivan/scholaris/internal/submission"
	"github.com/taibuivan/scholaris/pkg/pagination"
)

// Handler implements the HTTP layer for reference numbers.
type Handler struct {
	service *Service
}

// NewHandler constructs a new reference [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /references router. Mount it behind middleware.RequireAuth.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listMine)
	router.Post("/verify", handler.verify)
	router.With(middleware.RequireRole(sec.RoleAdmin)).Get("/admin", handler.listAll)
	router.Get("/{id}", handler.get)
	router.Put("/{id}/receive", handler.receive)

	return router
}

type verifyRequest struct {
	Number string `json:"number"`
	Notes  string `json:"notes"`
}

/*
POST /api/v1/references/verify.

Description: Looks a reference number up and appends a verification entry.

Request:
  - number: string
  - notes: string (optional)

Response:
  - 200: Record: Record with verification log
  - 404: NOT_FOUND: Unknown number, nothing recorded
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	actor, err := submission.RequestActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body verifyRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Verify(request.Context(), actor, body.Number, body.Notes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
GET /api/v1/references.

Description: Lists numbers issued for submissions the caller owns or supervises.
*/
func (handler *Handler) listMine(writer http.ResponseWriter, request *http.Request) {
	actor, err := submission.RequestActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromValues(request.URL.Query())
	records, total, err := handler.service.ListForUser(request.Context(), actor, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, records, pagination.NewMeta(page.Page, page.Limit, total))
}

/*
GET /api/v1/references/admin.

Description: Lists every issued number. Admin only.
*/
func (handler *Handler) listAll(writer http.ResponseWriter, request *http.Request) {
	actor, err := submission.RequestActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromValues(request.URL.Query())
	records, total, err := handler.service.ListAll(request.Context(), actor, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, records, pagination.NewMeta(page.Page, page.Limit, total))
}

/*
GET /api/v1/references/{id}.

Response:
  - 200: Record
  - 403: FORBIDDEN
  - 404: NOT_FOUND
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	actor, err := submission.RequestActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.Get(request.Context(), actor, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
PUT /api/v1/references/{id}/receive.

Description: Marks the physical copy as received.

Response:
  - 200: Record: Updated record
  - 409: INVALID_STATE: Already received
*/
func (handler *Handler) receive(writer http.ResponseWriter, request *http.Request) {
	actor, err := submission.RequestActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.service.MarkReceived(request.Context(), actor, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}
