package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nexbill/payments/internal/documents"
	"github.com/nexbill/payments/internal/models"
	"github.com/nexbill/payments/internal/payments"
	"github.com/nexbill/payments/internal/receipts"
	"github.com/nexbill/payments/internal/recon"
)

func setupPaymentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Customer{}, &models.Supplier{},
		&models.Invoice{}, &models.Quotation{},
		&models.PaymentRecord{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newInvoiceHandler(t *testing.T, db *gorm.DB) *PaymentHandler {
	t.Helper()
	registry := documents.NewRegistry()
	store := payments.NewStore(db)
	engine := recon.NewEngine(db, store, registry)
	assembler := receipts.NewAssembler(db, store, registry)
	a, err := registry.ForFamily(models.DocInvoice)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	return NewPaymentHandler(db, a, engine, store, assembler)
}

func seedInvoiceFixtures(t *testing.T, db *gorm.DB, total int64) (models.Customer, models.Invoice) {
	t.Helper()
	cust := models.Customer{Name: "Meridian Pumps", Email: "accounts@meridian.example", Phone: "98200 11223", Address: "14 Industrial Estate, Pune"}
	if err := db.Create(&cust).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	inv := models.Invoice{InvoiceNumber: "INV-2026-042", CustomerID: cust.ID, GrandTotal: decimal.NewFromInt(total)}
	inv.PaymentStatus = "Pending"
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("invoice: %v", err)
	}
	return cust, inv
}

type paymentResponse struct {
	Payment   models.PaymentRecord `json:"payment"`
	Aggregate recon.Aggregate      `json:"aggregate"`
	Warning   string               `json:"warning"`
}

func createPayment(t *testing.T, h *PaymentHandler, body string) (paymentResponse, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invoice-payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Create(w, req)
	var resp paymentResponse
	if w.Code == http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v body=%s", err, w.Body.String())
		}
	}
	return resp, w
}

func TestCreatePaymentHappyPath(t *testing.T) {
	db := setupPaymentTestDB(t)
	_, inv := seedInvoiceFixtures(t, db, 10000)
	h := newInvoiceHandler(t, db)

	body := fmt.Sprintf(`{"parent_id":%d,"amount":4000,"payment_method":"cash","payment_method_details":{"cash":{"receivedBy":"counter"}}}`, inv.ID)
	resp, w := createPayment(t, h, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if !resp.Aggregate.PaidAmount.Equal(decimal.NewFromInt(4000)) || resp.Aggregate.PaymentStatus != "Partial" {
		t.Fatalf("unexpected aggregate: %+v", resp.Aggregate)
	}
	if resp.Payment.ReceiptNumber == "" {
		t.Fatal("receipt number not assigned")
	}
	if resp.Payment.DocumentNumber != "INV-2026-042" {
		t.Fatalf("document number not denormalized: %q", resp.Payment.DocumentNumber)
	}
	if resp.Payment.Currency != "INR" {
		t.Fatalf("currency default: %q", resp.Payment.Currency)
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	db := setupPaymentTestDB(t)
	_, inv := seedInvoiceFixtures(t, db, 10000)
	h := newInvoiceHandler(t, db)

	cases := []struct {
		name string
		body string
	}{
		{"missing parent", `{"amount":100,"payment_method":"cash"}`},
		{"zero amount", fmt.Sprintf(`{"parent_id":%d,"amount":0,"payment_method":"cash"}`, inv.ID)},
		{"unknown method", fmt.Sprintf(`{"parent_id":%d,"amount":100,"payment_method":"barter"}`, inv.ID)},
		{"cheque missing fields", fmt.Sprintf(`{"parent_id":%d,"amount":100,"payment_method":"cheque","payment_method_details":{"cheque":{"bankName":"X"}}}`, inv.ID)},
		{"bank transfer missing details", fmt.Sprintf(`{"parent_id":%d,"amount":100,"payment_method":"bank_transfer","payment_method_details":{"bank_transfer":{"transferDate":"2026-08-01"}}}`, inv.ID)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, w := createPayment(t, h, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
			}
		})
	}
	// nothing persisted and the aggregate never moved
	var count int64
	db.Model(&models.PaymentRecord{}).Count(&count)
	if count != 0 {
		t.Fatalf("payments persisted: %d", count)
	}
}

func TestCreatePaymentOverpayConflict(t *testing.T) {
	db := setupPaymentTestDB(t)
	_, inv := seedInvoiceFixtures(t, db, 1000)
	h := newInvoiceHandler(t, db)

	body := fmt.Sprintf(`{"parent_id":%d,"amount":1500,"payment_method":"cash"}`, inv.ID)
	_, w := createPayment(t, h, body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "remaining") {
		t.Fatalf("conflict body should carry remaining amount: %s", w.Body.String())
	}
}

func TestCreatePaymentUnknownParent(t *testing.T) {
	db := setupPaymentTestDB(t)
	h := newInvoiceHandler(t, db)
	_, w := createPayment(t, h, `{"parent_id":4242,"amount":100,"payment_method":"cash"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateStatusMovesAggregate(t *testing.T) {
	db := setupPaymentTestDB(t)
	_, inv := seedInvoiceFixtures(t, db, 10000)
	h := newInvoiceHandler(t, db)

	body := fmt.Sprintf(`{"parent_id":%d,"amount":2500,"payment_method":"cash","payment_status":"pending"}`, inv.ID)
	resp, w := createPayment(t, h, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", w.Code, w.Body.String())
	}
	if !resp.Aggregate.PaidAmount.IsZero() {
		t.Fatalf("pending payment counted: %+v", resp.Aggregate)
	}

	req := httptest.NewRequest(http.MethodPut, "/invoice-payments/1/status", strings.NewReader(`{"payment_status":"completed"}`))
	req.SetPathValue("id", strconv.Itoa(int(resp.Payment.ID)))
	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status update: %d body=%s", rec.Code, rec.Body.String())
	}
	var out paymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Aggregate.PaidAmount.Equal(decimal.NewFromInt(2500)) || out.Aggregate.PaymentStatus != "Partial" {
		t.Fatalf("aggregate after completion: %+v", out.Aggregate)
	}
}

func TestDeleteRestoresAggregate(t *testing.T) {
	db := setupPaymentTestDB(t)
	_, inv := seedInvoiceFixtures(t, db, 10000)
	h := newInvoiceHandler(t, db)

	resp, w := createPayment(t, h, fmt.Sprintf(`{"parent_id":%d,"amount":500,"payment_method":"cash"}`, inv.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/invoice-payments/1", nil)
	req.SetPathValue("id", strconv.Itoa(int(resp.Payment.ID)))
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Deleted   bool            `json:"deleted"`
		Aggregate recon.Aggregate `json:"aggregate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Deleted || !out.Aggregate.PaidAmount.IsZero() || out.Aggregate.PaymentStatus != "Pending" {
		t.Fatalf("aggregate not restored: %+v", out)
	}
}

func TestListByParent(t *testing.T) {
	db := setupPaymentTestDB(t)
	_, inv := seedInvoiceFixtures(t, db, 10000)
	h := newInvoiceHandler(t, db)

	for _, amt := range []int{1000, 2000} {
		_, w := createPayment(t, h, fmt.Sprintf(`{"parent_id":%d,"amount":%d,"payment_method":"cash"}`, inv.ID, amt))
		if w.Code != http.StatusCreated {
			t.Fatalf("create %d: %d", amt, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/invoice-payments/by-parent/1", nil)
	req.SetPathValue("parentID", strconv.Itoa(int(inv.ID)))
	rec := httptest.NewRecorder()
	h.ListByParent(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Items     []models.PaymentRecord  `json:"items"`
		Total     int                     `json:"total"`
		Aggregate models.PaymentAggregate `json:"aggregate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 2 || len(out.Items) != 2 {
		t.Fatalf("unexpected list: %+v", out)
	}
	if !out.Aggregate.PaidAmount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("aggregate: %+v", out.Aggregate)
	}
}

func TestReceiptPDF(t *testing.T) {
	db := setupPaymentTestDB(t)
	_, inv := seedInvoiceFixtures(t, db, 10000)
	h := newInvoiceHandler(t, db)

	body := fmt.Sprintf(`{"parent_id":%d,"amount":4000,"payment_method":"cheque","payment_method_details":{"cheque":{"chequeNumber":"000451","bankName":"HDFC","issueDate":"2026-08-15"}}}`, inv.ID)
	resp, w := createPayment(t, h, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/invoice-payments/1/receipt", nil)
	req.SetPathValue("id", strconv.Itoa(int(resp.Payment.ID)))
	rec := httptest.NewRecorder()
	h.Receipt(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("receipt: %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type: %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty pdf body")
	}

	// unknown payment surfaces as 404, not 500
	req = httptest.NewRequest(http.MethodGet, "/invoice-payments/99/receipt", nil)
	req.SetPathValue("id", "99")
	rec = httptest.NewRecorder()
	h.Receipt(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing payment receipt: %d", rec.Code)
	}
}

func TestExportRegister(t *testing.T) {
	db := setupPaymentTestDB(t)
	_, inv := seedInvoiceFixtures(t, db, 10000)
	h := newInvoiceHandler(t, db)

	_, w := createPayment(t, h, fmt.Sprintf(`{"parent_id":%d,"amount":1000,"payment_method":"cash"}`, inv.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/invoice-payments/export/by-parent/1", nil)
	req.SetPathValue("parentID", strconv.Itoa(int(inv.ID)))
	rec := httptest.NewRecorder()
	h.Export(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("content type: %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty workbook body")
	}
}
