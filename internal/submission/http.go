// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/scholaris/internal/platform/request"
	"github.com/taibuivan/scholaris/internal/platform/respond"
	"github.com/taibuivan/scholaris/pkg/pagination"
	"github.com/taibuivan/scholaris/pkg/query"
)

// # Handler Implementation

// Handler implements the HTTP layer for research and thesis records.
type Handler struct {
	service *Service
}

// NewHandler constructs a new submission [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for one submission kind. Every endpoint requires
// authentication; mount it behind middleware.RequireAuth.
func (handler *Handler) Routes(kind Kind) chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list(kind))
	router.Post("/", handler.create(kind))
	if kind == KindThesis {
		router.Get("/supervised", handler.listSupervised)
	}
	router.Get("/{id}", handler.get(kind))
	router.Patch("/{id}", handler.update(kind))
	router.Delete("/{id}", handler.remove(kind))

	return router
}

// RequestActor resolves the authenticated caller.
func RequestActor(request *http.Request) (Actor, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return Actor{}, err
	}
	return ActorFrom(claims), nil
}

// # Endpoints

/*
GET /api/v1/{kind}.

Description: Lists submissions visible to the caller.

Request:
  - field=value, field[gt|gte|lt|lte|in]=value filters
  - select: comma-separated projection
  - sort: comma-separated, '-' prefix for descending (default -submission_date)
  - page, limit: paging (default 1, 10)

Response:
  - 200: []Submission: Paginated list
  - 400: VALIDATION_ERROR: Malformed filter value
*/
func (handler *Handler) list(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		actor, err := RequestActor(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		q := query.Parse(request.URL.Query())
		submissions, total, err := handler.service.List(request.Context(), actor, kind, q)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		writePage(writer, request, submissions, q, total)
	}
}

/*
GET /api/v1/thesis/supervised.

Description: Lists theses whose supervisor is the caller.
*/
func (handler *Handler) listSupervised(writer http.ResponseWriter, request *http.Request) {
	actor, err := RequestActor(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	q := query.Parse(request.URL.Query())
	submissions, total, err := handler.service.ListSupervised(request.Context(), actor, q)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writePage(writer, request, submissions, q, total)
}

/*
POST /api/v1/{kind}.

Description: Registers a new pending submission owned by the caller.

Response:
  - 201: Submission: Created record
  - 400: VALIDATION_ERROR: Invalid input data
*/
func (handler *Handler) create(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		actor, err := RequestActor(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		var input Input
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}

		submission, err := handler.service.Create(request.Context(), actor, kind, input)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.Created(writer, submission)
	}
}

/*
GET /api/v1/{kind}/{id}.

Response:
  - 200: Submission
  - 403: FORBIDDEN: Not related to the submission
  - 404: NOT_FOUND
*/
func (handler *Handler) get(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		actor, err := RequestActor(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		id, err := requestutil.ID(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		submission, err := handler.service.Get(request.Context(), actor, kind, id)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.OK(writer, submission)
	}
}

/*
PATCH /api/v1/{kind}/{id}.

Description: Partially updates a submission. A body carrying only notes and
defense is an annotation and is accepted in any status.

Response:
  - 200: Submission: Updated record
  - 403: FORBIDDEN
  - 409: INVALID_STATE: Status does not allow the change
*/
func (handler *Handler) update(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		actor, err := RequestActor(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		id, err := requestutil.ID(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		var input Input
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}

		submission, err := handler.service.Update(request.Context(), actor, kind, id, input)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.OK(writer, submission)
	}
}

/*
DELETE /api/v1/{kind}/{id}.

Response:
  - 204: Deleted
  - 403: FORBIDDEN
  - 409: INVALID_STATE: Approved, or rejected for a non-admin
*/
func (handler *Handler) remove(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		actor, err := RequestActor(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		id, err := requestutil.ID(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		if err := handler.service.Delete(request.Context(), actor, kind, id); err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.NoContent(writer)
	}
}

// writePage projects and writes a paginated listing.
func writePage(writer http.ResponseWriter, request *http.Request, submissions []*Submission, q query.Query, total int) {
	data, err := query.Project(submissions, q.Select)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, data, pagination.NewMeta(q.Page.Page, q.Page.Limit, total))
}
