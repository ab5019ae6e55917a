package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultStaleAge = 30 * time.Minute

type TimeclockHandler interface {
	ListRequests(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	RequeueRequest(w http.ResponseWriter, r *http.Request)
	RequeueStale(w http.ResponseWriter, r *http.Request)
	ListShifts(w http.ResponseWriter, r *http.Request)
}

type TimeclockHandlerImpl struct {
	timeclockService timeclock.TimeclockService
}

func NewTimeclockHandler(timeclockService timeclock.TimeclockService) TimeclockHandler {
	return &TimeclockHandlerImpl{timeclockService: timeclockService}
}

// ListRequests implements TimeclockHandler.
func (h *TimeclockHandlerImpl) ListRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := timeclock.RequestFilter{}

	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	if locationCode := query.Get("location_code"); locationCode != "" {
		filter.LocationCode = &locationCode
	}
	if date := query.Get("date"); date != "" {
		filter.Date = &date
	}

	// Pagination, validated by the service
	if pageStr := query.Get("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil {
			response.BadRequest(w, "page must be a number", nil)
			return
		}
		filter.Page = p
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			response.BadRequest(w, "limit must be a number", nil)
			return
		}
		filter.Limit = l
	}

	list, err := h.timeclockService.ListRequests(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, list.Requests, &response.Meta{
		Page:       list.Page,
		Limit:      list.Limit,
		TotalItems: list.TotalCount,
		TotalPages: list.TotalPages,
		Showing:    list.Showing,
	})
}

// GetRequest implements TimeclockHandler.
func (h *TimeclockHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	req, err := h.timeclockService.GetRequest(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, req)
}

// RequeueRequest implements TimeclockHandler.
func (h *TimeclockHandlerImpl) RequeueRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}

	req, err := h.timeclockService.RequeueRequest(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timeclock request requeued", req)
}

// requestID reads the {id} URL param and rejects anything that is not a UUID
// before it reaches the database.
func requestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(w, "Request ID must be a UUID", map[string]string{"id": id})
		return "", false
	}
	return id, true
}

type requeueStaleResponse struct {
	OlderThan string   `json:"older_than"`
	Requeued  []string `json:"requeued"`
}

// RequeueStale implements TimeclockHandler.
func (h *TimeclockHandlerImpl) RequeueStale(w http.ResponseWriter, r *http.Request) {
	olderThan := defaultStaleAge
	if v := r.URL.Query().Get("older_than"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			response.BadRequest(w, "older_than must be a positive duration", map[string]string{
				"older_than": fmt.Sprintf("got %q, expected e.g. 30m or 2h", v),
			})
			return
		}
		olderThan = d
	}

	requeued, err := h.timeclockService.RequeueStale(r.Context(), olderThan)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w,
		fmt.Sprintf("%d timeclock requests requeued", len(requeued)),
		requeueStaleResponse{OlderThan: olderThan.String(), Requeued: requeued},
	)
}

// ListShifts implements TimeclockHandler.
func (h *TimeclockHandlerImpl) ListShifts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := timeclock.ShiftFilter{Date: query.Get("date")}

	if locationCode := query.Get("location_code"); locationCode != "" {
		filter.LocationCode = &locationCode
	}
	if employeeCode := query.Get("employee_code"); employeeCode != "" {
		filter.EmployeeCode = &employeeCode
	}

	shifts, err := h.timeclockService.ListShifts(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, shifts)
}
