package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/export"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

type subscriptionRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	CategoryID       string `json:"category_id"`
	FirstPaymentDate string `json:"first_payment_date"`
	BillingCycle     string `json:"billing_cycle"`
	Duration         string `json:"duration"`
	Cost             string `json:"cost"`
	ReminderDays     int    `json:"reminder_days"`
}

func (req subscriptionRequest) toSubscription(userID string) (core.Subscription, error) {
	anchor, err := core.ParseDate(req.FirstPaymentDate)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("first_payment_date: %w", err)
	}
	cents, err := core.ParseDecimalToCents(req.Cost)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("cost: %w", err)
	}
	return core.Subscription{
		UserID:       userID,
		Name:         sanitizeInput(req.Name),
		Description:  sanitizeInput(req.Description),
		CategoryID:   strings.TrimSpace(req.CategoryID),
		FirstPayment: anchor,
		BillingCycle: core.BillingCycle(strings.TrimSpace(req.BillingCycle)),
		Duration:     core.FixedDuration(strings.TrimSpace(req.Duration)),
		Cost:         core.Money{Cents: cents},
		ReminderDays: req.ReminderDays,
	}, nil
}

type subscriptionResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	CategoryID       string  `json:"category_id"`
	FirstPaymentDate string  `json:"first_payment_date"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date,omitempty"`
	BillingCycle     string  `json:"billing_cycle,omitempty"`
	Duration         string  `json:"duration,omitempty"`
	Cost             float64 `json:"cost"`
	MonthlyCost      float64 `json:"monthly_cost"`
	Recurring        bool    `json:"recurring"`
	Status           string  `json:"status"`
	DateCanceled     string  `json:"date_canceled,omitempty"`
	ReminderDays     int     `json:"reminder_days"`
	DaysLeft         int     `json:"days_left"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func toResponse(s core.Subscription, today core.Date) subscriptionResponse {
	return subscriptionResponse{
		ID:               s.ID,
		Name:             s.Name,
		Description:      s.Description,
		CategoryID:       s.CategoryID,
		FirstPaymentDate: s.FirstPayment.String(),
		StartDate:        s.StartDate.String(),
		EndDate:          s.EndDate.String(),
		BillingCycle:     string(s.BillingCycle),
		Duration:         string(s.Duration),
		Cost:             s.Cost.Amount(),
		MonthlyCost:      s.MonthlyCost(),
		Recurring:        s.Recurring,
		Status:           string(s.Status),
		DateCanceled:     s.DateCanceled.String(),
		ReminderDays:     s.ReminderDays,
		DaysLeft:         s.DaysLeft(today),
		CreatedAt:        s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        s.UpdatedAt.Format(time.RFC3339),
	}
}

type categoryTotalResponse struct {
	Count       int     `json:"count"`
	MonthlyCost float64 `json:"monthly_cost"`
}

type dashboardResponse struct {
	ActiveCount  int                              `json:"active_count"`
	MonthlyCost  float64                          `json:"monthly_cost"`
	YearlyCost   float64                          `json:"yearly_cost"`
	ExpiringSoon int                              `json:"expiring_soon"`
	ByCategory   map[string]categoryTotalResponse `json:"by_category"`
}

func toDashboardResponse(stats core.AggregateStats) dashboardResponse {
	byCategory := make(map[string]categoryTotalResponse, len(stats.ByCategory))
	for name, total := range stats.ByCategory {
		byCategory[name] = categoryTotalResponse{
			Count:       total.Count,
			MonthlyCost: total.MonthlyCost,
		}
	}
	return dashboardResponse{
		ActiveCount:  stats.ActiveCount,
		MonthlyCost:  stats.MonthlyCost,
		YearlyCost:   stats.YearlyCost,
		ExpiringSoon: len(stats.ExpiringSoon),
		ByCategory:   byCategory,
	}
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.service.List(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "List subscriptions error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	today := core.DateOf(time.Now())
	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toResponse(sub, today))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := req.toSubscription(userID(r))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	created, err := s.service.Create(r.Context(), sub)
	if err != nil {
		s.writeServiceError(w, r, err, "create")
		return
	}
	s.invalidateDashboard(created.UserID)
	writeJSON(w, http.StatusCreated, toResponse(created, core.DateOf(time.Now())))
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.service.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sub, core.DateOf(time.Now())))
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := req.toSubscription(userID(r))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sub.ID = r.PathValue("id")
	updated, err := s.service.Update(r.Context(), sub)
	if err != nil {
		s.writeServiceError(w, r, err, "update")
		return
	}
	s.invalidateDashboard(updated.UserID)
	writeJSON(w, http.StatusOK, toResponse(updated, core.DateOf(time.Now())))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "delete")
		return
	}
	s.invalidateDashboard(userID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Cancel(r.Context(), userID(r), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "cancel")
		return
	}
	s.invalidateDashboard(userID(r))
	sub, err := s.service.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sub, core.DateOf(time.Now())))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.service.Categories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	days := parseDaysParam(r, s.expiringDays)

	// Only default-window dashboards are cached; custom windows go
	// straight to the service.
	useCache := days == s.expiringDays
	if useCache {
		if stats, found := s.dashboardCache.Get(user); found {
			slog.DebugContext(r.Context(), "Dashboard cache hit", "user_id", user)
			writeJSON(w, http.StatusOK, toDashboardResponse(stats))
			return
		}
	}

	stats, err := s.service.Dashboard(r.Context(), user, days)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute dashboard")
		return
	}
	if useCache {
		s.dashboardCache.Set(user, stats)
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(stats))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}

	subs, err := s.service.List(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Export list error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="subscriptions.csv"`)
		if err := export.WriteCSV(w, subs); err != nil {
			slog.ErrorContext(r.Context(), "CSV export error", "error", err)
		}
	case "xlsx":
		stats := core.Summarize(subs, core.DateOf(time.Now()), s.expiringDays)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="subscriptions.xlsx"`)
		if err := export.WriteXLSX(w, subs, stats); err != nil {
			slog.ErrorContext(r.Context(), "XLSX export error", "error", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "unsupported format, use csv or xlsx")
	}
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		writeError(w, http.StatusServiceUnavailable, "sheets export not configured")
		return
	}
	subs, err := s.service.List(r.Context(), userID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Export list error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	rows, err := s.sheets.AppendSubscriptions(r.Context(), subs)
	if err != nil {
		slog.ErrorContext(r.Context(), "Sheets export error", "error", err)
		writeError(w, http.StatusBadGateway, "failed to export to sheets")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rows_exported": rows})
}

func (s *Server) invalidateDashboard(user string) {
	s.dashboardCache.Delete(user)
}

// writeServiceError maps service failures onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "subscription not found")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Subscription operation failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrEmptyName,
		core.ErrEmptyCategory,
		core.ErrInvalidCycle,
		core.ErrInvalidDuration,
		core.ErrInvalidReminder,
		core.ErrNoPeriodPolicy,
		core.ErrInvalidStatus,
		services.ErrIndeterminatePeriod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
