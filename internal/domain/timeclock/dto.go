package timeclock

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/validator"
)

// ========================================
// REQUEST DTOs
// ========================================

type RequestFilter struct {
	Status       *string `json:"status,omitempty"`
	LocationCode *string `json:"location_code,omitempty"`
	Date         *string `json:"date,omitempty"` // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *RequestFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !RequestStatus(*f.Status).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: pending, processing, completed, failed",
		})
	}

	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ShiftFilter struct {
	Date         string  `json:"date"` // YYYY-MM-DD, required
	LocationCode *string `json:"location_code,omitempty"`
	EmployeeCode *string `json:"employee_code,omitempty"`
}

func (f *ShiftFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(f.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecordResponse struct {
	ID           string `json:"id"`
	Sequence     int    `json:"sequence"`
	EmployeeCode string `json:"employee_code"`
	ClockStatus  string `json:"clock_status"`
	ClockValue   string `json:"clock_value"`
}

type RequestResponse struct {
	ID           string           `json:"id"`
	LocationCode string           `json:"location_code"`
	Date         string           `json:"date"`
	Status       string           `json:"status"`
	FailMessage  *string          `json:"fail_message,omitempty"`
	Records      []RecordResponse `json:"records,omitempty"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

type ListRequestResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Requests   []RequestResponse `json:"requests"`
}

type ShiftResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeCode string  `json:"employee_code"`
	DepartmentID *string `json:"department_id,omitempty"`
	RoleID       *string `json:"role_id,omitempty"`
	WorkDate     string  `json:"work_date"`
	Start        *string `json:"start,omitempty"`
	End          *string `json:"end,omitempty"`
	BreakStart   *string `json:"break_start,omitempty"`
	BreakEnd     *string `json:"break_end,omitempty"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func NewRequestResponse(r Request) RequestResponse {
	resp := RequestResponse{
		ID:           r.ID,
		LocationCode: r.LocationCode,
		Date:         r.Date.Format("2006-01-02"),
		Status:       string(r.Status),
		FailMessage:  r.FailMessage,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
	}
	for _, rec := range r.Records {
		resp.Records = append(resp.Records, RecordResponse{
			ID:           rec.ID,
			Sequence:     rec.Sequence,
			EmployeeCode: rec.EmployeeCode,
			ClockStatus:  rec.ClockStatus.String(),
			ClockValue:   rec.ClockValue.Format(time.RFC3339),
		})
	}
	return resp
}

func NewShiftResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:           s.ID,
		EmployeeID:   s.EmployeeID,
		EmployeeCode: s.EmployeeCode,
		DepartmentID: s.DepartmentID,
		RoleID:       s.RoleID,
		WorkDate:     s.WorkDate.Format("2006-01-02"),
		Start:        timePtrToString(s.Start),
		End:          timePtrToString(s.End),
		BreakStart:   timePtrToString(s.BreakStart),
		BreakEnd:     timePtrToString(s.BreakEnd),
	}
}

func NewListRequestResponse(requests []Request, total int64, page, limit int) ListRequestResponse {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	from := int64((page-1)*limit) + 1
	to := from + int64(len(requests)) - 1
	showing := fmt.Sprintf("%d-%d of %d", from, to, total)
	if len(requests) == 0 {
		showing = fmt.Sprintf("0 of %d", total)
	}

	resp := ListRequestResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Showing:    showing,
		Requests:   make([]RequestResponse, 0, len(requests)),
	}
	for _, r := range requests {
		resp.Requests = append(resp.Requests, NewRequestResponse(r))
	}
	return resp
}
