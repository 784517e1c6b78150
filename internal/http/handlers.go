package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"stockkeeper/internal/domain"
	"stockkeeper/internal/report"
	"stockkeeper/internal/repository"
	"stockkeeper/internal/service"
)

type Handler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewHandler(svc *service.Service, logger *logrus.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}

	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lowStock := false
	if raw := strings.TrimSpace(query.Get("low_stock")); raw != "" {
		lowStock, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "low_stock must be true or false")
			return
		}
	}

	items, err := h.svc.ListProducts(r.Context(), businessID, repository.ProductListFilter{
		Search:       query.Get("search"),
		LowStockOnly: lowStock,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	product, err := h.svc.GetProduct(r.Context(), businessID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type addProductRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
	Price    float64 `json:"price"`
	Cost     float64 `json:"cost"`
	MinStock int     `json:"min_stock"`
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	var req addProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.AddProduct(r.Context(), repository.ProductCreateInput{
		BusinessID: businessID,
		Name:       req.Name,
		Category:   req.Category,
		Stock:      req.Stock,
		Price:      req.Price,
		CostPrice:  req.Cost,
		MinStock:   req.MinStock,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type updatePriceRequest struct {
	Price float64 `json:"price"`
}

func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	var req updatePriceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.UpdatePrice(r.Context(), businessID, chi.URLParam(r, "id"), req.Price); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

type adjustStockRequest struct {
	Delta *int `json:"delta"`
	Stock *int `json:"stock"`
}

// AdjustStock handles both restock edits (absolute stock) and signed
// deltas; exactly one of the two fields must be present.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	var err error
	switch {
	case req.Delta != nil && req.Stock != nil:
		writeError(w, http.StatusBadRequest, "provide either delta or stock, not both")
		return
	case req.Delta != nil:
		err = h.svc.AdjustStock(r.Context(), businessID, id, *req.Delta)
	case req.Stock != nil:
		err = h.svc.SetStock(r.Context(), businessID, id, *req.Stock)
	default:
		writeError(w, http.StatusBadRequest, "delta or stock is required")
		return
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

type checkoutRequest struct {
	Lines []domain.CheckoutLine `json:"lines"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.Checkout(r.Context(), businessID, req.Lines)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sales, err := h.svc.ListSales(r.Context(), businessID, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sales, "count": len(sales)})
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	if err := h.svc.DeleteSale(r.Context(), businessID, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderReceipt locates the lines of one order by the shared checkout
// timestamp and returns the receipt as JSON or a thermal-format PDF.
func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	soldAt, err := parseRequiredTime(r.URL.Query().Get("sold_at"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	receipt, err := h.svc.OrderReceipt(r.Context(), businessID, *soldAt)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "pdf") {
		pdf, err := receipt.RenderPDF()
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%s.pdf", soldAt.Format("20060102_150405")))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type recordExpenseRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
}

func (h *Handler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	var req recordExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var spentAt time.Time
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := parseRequiredTime(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		spentAt = *parsed
	}

	created, err := h.svc.RecordExpense(r.Context(), domain.Expense{
		BusinessID:  businessID,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		SpentAt:     spentAt,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	expenses, err := h.svc.ListExpenses(r.Context(), businessID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": expenses, "count": len(expenses)})
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	if err := h.svc.DeleteExpense(r.Context(), businessID, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	rep, err := h.svc.GetReport(r.Context(), businessID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ExportReport serves the report as a summary CSV, an XLSX workbook, or
// the raw sale rows as round-trippable CSV.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "summary"
	}
	stamp := time.Now().Format("2006-01-02")

	switch format {
	case "summary":
		rep, err := h.svc.GetReport(r.Context(), businessID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		body, err := report.SummaryCSV(rep)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		serveAttachment(w, body, "text/csv", fmt.Sprintf("stockkeeper_report_%s.csv", stamp))
	case "sales":
		sales, err := h.svc.SalesHistory(r.Context(), businessID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		body, err := report.SalesCSV(sales)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		serveAttachment(w, body, "text/csv", fmt.Sprintf("stockkeeper_sales_%s.csv", stamp))
	case "xlsx":
		rep, err := h.svc.GetReport(r.Context(), businessID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		body, err := report.WriteXLSX(rep)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		serveAttachment(w, body, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			fmt.Sprintf("stockkeeper_report_%s.xlsx", stamp))
	default:
		writeError(w, http.StatusBadRequest, "format must be summary, sales or xlsx")
	}
}

func (h *Handler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	business, err := h.svc.GetBusiness(r.Context(), businessID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

type updateBusinessRequest struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Phone      string   `json:"phone"`
	Currency   string   `json:"currency"`
	TaxRate    float64  `json:"tax_rate"`
	Categories []string `json:"categories"`
}

func (h *Handler) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	var req updateBusinessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.svc.UpdateBusiness(r.Context(), domain.Business{
		ID:         businessID,
		Name:       req.Name,
		Address:    req.Address,
		Phone:      req.Phone,
		Currency:   req.Currency,
		TaxRate:    req.TaxRate,
		Categories: req.Categories,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	members, err := h.svc.ListStaff(r.Context(), businessID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": members, "count": len(members)})
}

type addStaffRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (h *Handler) AddStaff(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	var req addStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.AddStaff(r.Context(), domain.StaffMember{
		BusinessID: businessID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Role:       req.Role,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type toggleStaffRequest struct {
	CurrentStatus string `json:"current_status"`
}

func (h *Handler) ToggleStaffStatus(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	var req toggleStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ToggleStaffStatus(r.Context(), businessID, chi.URLParam(r, "id"), req.CurrentStatus); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	if err := h.svc.DeleteStaff(r.Context(), businessID, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	businessID, ok := BusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "business scope required")
		return
	}
	summary, err := h.svc.DashboardSummary(r.Context(), businessID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// writeServiceError maps domain sentinels to status codes; everything else
// surfaces as a single generic message so store internals never leak.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

func parseRequiredTime(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, fmt.Errorf("time is required")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("invalid time: %s", raw)
}

func serveAttachment(w http.ResponseWriter, body []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
