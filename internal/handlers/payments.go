package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexbill/payments/internal/documents"
	"github.com/nexbill/payments/internal/export"
	"github.com/nexbill/payments/internal/httpx"
	"github.com/nexbill/payments/internal/models"
	"github.com/nexbill/payments/internal/payments"
	"github.com/nexbill/payments/internal/receipts"
	"github.com/nexbill/payments/internal/recon"
	"github.com/nexbill/payments/internal/validation"
)

// receiptTimeout bounds PDF generation; rendering is slower than any DB
// round trip and its failure mode is reported separately.
const receiptTimeout = 10 * time.Second

// PaymentHandler serves one document family's payment endpoints. The same
// handler code runs for every family; the adapter carries the differences.
type PaymentHandler struct {
	DB        *gorm.DB
	Adapter   *documents.Adapter
	Engine    *recon.Engine
	Store     *payments.Store
	Assembler *receipts.Assembler
}

func NewPaymentHandler(db *gorm.DB, a *documents.Adapter, eng *recon.Engine, store *payments.Store, asm *receipts.Assembler) *PaymentHandler {
	return &PaymentHandler{DB: db, Adapter: a, Engine: eng, Store: store, Assembler: asm}
}

type createPaymentRequest struct {
	ParentID             uint                    `json:"parent_id"`
	DocumentNumber       string                  `json:"document_number"`
	PayerID              uint                    `json:"payer_id"`
	Amount               decimal.Decimal         `json:"amount"`
	Currency             string                  `json:"currency"`
	PaymentMethod        models.PaymentMethod    `json:"payment_method"`
	PaymentMethodDetails json.RawMessage         `json:"payment_method_details"`
	PaymentStatus        models.PaymentLifecycle `json:"payment_status"`
	PaymentDate          *time.Time              `json:"payment_date"`
	Notes                string                  `json:"notes"`
	ReceiptNumber        string                  `json:"receipt_number"`
	CreatedBy            string                  `json:"created_by"`
}

// Create: POST /{family}-payments
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	v := validation.Violations{}
	if req.ParentID == 0 {
		v["parent_id"] = "required"
	}
	validation.PositiveDecimal("amount", req.Amount, v)
	validation.OneOf("payment_method", string(req.PaymentMethod), payments.KnownMethods(), v)
	if req.PaymentStatus != "" && !validLifecycle(req.PaymentStatus) {
		v["payment_status"] = "unknown_value"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	details, err := payments.Normalize(req.PaymentMethod, req.PaymentMethodDetails)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if dv := payments.Validate(req.PaymentMethod, details, h.Adapter.BankTransferRequired); !dv.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", dv)
		return
	}

	p := models.PaymentRecord{
		ParentDocumentID:   req.ParentID,
		ParentDocumentType: h.Adapter.Family,
		DocumentNumber:     req.DocumentNumber,
		PayerID:            req.PayerID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		PaymentMethod:      req.PaymentMethod,
		MethodDetails:      details,
		PaymentStatus:      req.PaymentStatus,
		Notes:              req.Notes,
		ReceiptNumber:      req.ReceiptNumber,
		CreatedBy:          req.CreatedBy,
	}
	if p.Currency == "" {
		p.Currency = "INR"
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = models.PaymentCompleted
	}
	if req.PaymentDate != nil {
		p.PaymentDate = *req.PaymentDate
	} else {
		p.PaymentDate = time.Now()
	}
	if p.ReceiptNumber == "" {
		p.ReceiptNumber = "RCPT-" + uuid.NewString()[:8]
	}

	agg, warned, err := h.Engine.RecordPayment(r.Context(), &p)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	resp := map[string]any{"payment": p, "aggregate": agg}
	if warned {
		resp["warning"] = "amount_exceeds_remaining"
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

// ListByParent: GET /{family}-payments/by-parent/{parentID}
func (h *PaymentHandler) ListByParent(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathID(w, r, "parentID")
	if !ok {
		return
	}
	doc, err := h.Adapter.Load(h.DB.WithContext(r.Context()), parentID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	recs, err := h.Store.ByParent(r.Context(), h.Adapter.Family, parentID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":     recs,
		"total":     len(recs),
		"aggregate": doc.Aggregate(),
	})
}

// Get: GET /{family}-payments/{id}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Store.ByID(r.Context(), h.Adapter.Family, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type updatePaymentRequest struct {
	Amount               *decimal.Decimal         `json:"amount"`
	PaymentMethod        *models.PaymentMethod    `json:"payment_method"`
	PaymentMethodDetails json.RawMessage          `json:"payment_method_details"`
	PaymentStatus        *models.PaymentLifecycle `json:"payment_status"`
	Notes                *string                  `json:"notes"`
	PaymentDate          *time.Time               `json:"payment_date"`
}

// Update: PUT /{family}-payments/{id}
func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	v := validation.Violations{}
	if req.Amount != nil {
		validation.PositiveDecimal("amount", *req.Amount, v)
	}
	if req.PaymentMethod != nil {
		validation.OneOf("payment_method", string(*req.PaymentMethod), payments.KnownMethods(), v)
	}
	if req.PaymentStatus != nil && !validLifecycle(*req.PaymentStatus) {
		v["payment_status"] = "unknown_value"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	am := recon.Amendment{
		Amount:      req.Amount,
		Status:      req.PaymentStatus,
		Notes:       req.Notes,
		PaymentDate: req.PaymentDate,
	}
	// A method change re-validates details against the family's rules. When
	// only details change, the stored method decides the variant.
	if req.PaymentMethod != nil || len(req.PaymentMethodDetails) > 0 {
		method := req.PaymentMethod
		if method == nil {
			existing, err := h.Store.ByID(r.Context(), h.Adapter.Family, id)
			if err != nil {
				httpx.Error(w, err)
				return
			}
			method = &existing.PaymentMethod
		}
		details, err := payments.Normalize(*method, req.PaymentMethodDetails)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		if dv := payments.Validate(*method, details, h.Adapter.BankTransferRequired); !dv.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", dv)
			return
		}
		am.Method = method
		am.Details = &details
	}

	p, agg, warned, err := h.Engine.AmendPayment(r.Context(), h.Adapter.Family, id, am)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	resp := map[string]any{"payment": p, "aggregate": agg}
	if warned {
		resp["warning"] = "amount_exceeds_remaining"
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Delete: DELETE /{family}-payments/{id}
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	agg, err := h.Engine.RemovePayment(r.Context(), h.Adapter.Family, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true, "aggregate": agg})
}

// UpdateStatus: PUT /{family}-payments/{id}/status
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus models.PaymentLifecycle `json:"payment_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if !validLifecycle(req.PaymentStatus) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"payment_status": "unknown_value"})
		return
	}
	p, agg, err := h.Engine.TransitionStatus(r.Context(), h.Adapter.Family, id, req.PaymentStatus)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payment": p, "aggregate": agg})
}

// Receipt: GET /{family}-payments/{id}/receipt
func (h *PaymentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.Assembler.Assemble(r.Context(), h.Adapter.Family, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), receiptTimeout)
	defer cancel()
	data, err := receipts.Render(ctx, view)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"receipt-"+strconv.FormatUint(uint64(id), 10)+".pdf\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Export: GET /{family}-payments/export/by-parent/{parentID}
func (h *PaymentHandler) Export(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathID(w, r, "parentID")
	if !ok {
		return
	}
	doc, err := h.Adapter.Load(h.DB.WithContext(r.Context()), parentID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	recs, err := h.Store.ByParent(r.Context(), h.Adapter.Family, parentID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	buf, err := export.PaymentsRegister(doc, recs)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\"payments-"+doc.Number()+".xlsx\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func validLifecycle(s models.PaymentLifecycle) bool {
	switch s {
	case models.PaymentPending, models.PaymentProcessing, models.PaymentCompleted, models.PaymentFailed, models.PaymentRefunded:
		return true
	}
	return false
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := r.PathValue(name)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(n), true
}
