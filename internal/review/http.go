// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/scholaris/internal/platform/request"
	"github.com/taibuivan/scholaris/internal/platform/respond"
	"github.com/taibuivan/scholaris/internal/submission"
)

// Handler implements the HTTP layer for review decisions.
type Handler struct {
	service *Service
}

// NewHandler constructs a new review [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register adds the review endpoint to a submission kind's router.
func (handler *Handler) Register(router chi.Router, kind submission.Kind) {
	router.Put("/{id}/review", handler.review(kind))
}

/*
PUT /api/v1/{kind}/{id}/review.

Description: Approves or rejects a pending submission. Approval issues a
reference number in the same transaction.

Request:
  - status: "approved" | "rejected"
  - adminNotes: string (optional)

Response:
  - 200: Submission: Reviewed record
  - 400: VALIDATION_ERROR: Unknown status
  - 403: FORBIDDEN: Not an admin or the thesis supervisor
  - 409: INVALID_STATE: Already reviewed
  - 503: ALLOCATION_EXHAUSTED: No reference number could be allocated
*/
func (handler *Handler) review(kind submission.Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
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

		var body Request
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			respond.Error(writer, request, err)
			return
		}

		reviewed, err := handler.service.Review(request.Context(), actor, kind, id, body)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.OK(writer, reviewed)
	}
}
