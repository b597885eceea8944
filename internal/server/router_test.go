package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appdb "github.com/nexbill/payments/internal/db"
	"github.com/nexbill/payments/internal/models"
)

func setupServer(t *testing.T) (*gorm.DB, http.Handler) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := appdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db, New(db)
}

func TestHealthEndpoints(t *testing.T) {
	_, srv := setupServer(t)
	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, w.Code)
		}
	}
}

func TestRoutesWiredPerFamily(t *testing.T) {
	db, srv := setupServer(t)

	cust := models.Customer{Name: "Arjun Traders"}
	if err := db.Create(&cust).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	sup := models.Supplier{Name: "Kaveri Components"}
	if err := db.Create(&sup).Error; err != nil {
		t.Fatalf("supplier: %v", err)
	}

	total := decimal.NewFromInt(5000)
	docs := []struct {
		prefix string
		doc    any
	}{
		{"quotation", &models.Quotation{QuotationNumber: "QT-1", CustomerID: cust.ID, TotalAmount: total}},
		{"invoice", &models.Invoice{InvoiceNumber: "IN-1", CustomerID: cust.ID, GrandTotal: total}},
		{"purchase-order", &models.PurchaseOrder{PONumber: "PO-1", SupplierID: sup.ID, TotalAmount: total}},
		{"proforma", &models.Proforma{ProformaNumber: "PF-1", CustomerID: cust.ID, GrandTotal: total}},
		{"amc-quotation", &models.AMCQuotation{QuotationNumber: "AQ-1", CustomerID: cust.ID, TotalAmount: total}},
		{"amc-invoice", &models.AMCInvoice{InvoiceNumber: "AI-1", CustomerID: cust.ID, TotalAmount: total}},
		{"dg-quotation", &models.DGQuotation{QuotationNumber: "DQ-1", CustomerID: cust.ID, GrandTotal: total}},
		{"dg-invoice", &models.DGInvoice{InvoiceNumber: "DI-1", CustomerID: cust.ID, GrandTotal: total}},
		{"dg-purchase-order", &models.DGPurchaseOrder{PONumber: "DP-1", SupplierID: sup.ID, GrandTotal: total}},
	}
	for _, d := range docs {
		if err := db.Create(d.doc).Error; err != nil {
			t.Fatalf("%s: %v", d.prefix, err)
		}
	}

	for _, d := range docs {
		t.Run(d.prefix, func(t *testing.T) {
			id := d.doc.(models.Billable).BillableID()
			body := fmt.Sprintf(`{"parent_id":%d,"amount":1200,"payment_method":"upi","payment_method_details":{"upi":{"upiId":"ops@okbank"}}}`, id)
			req := httptest.NewRequest(http.MethodPost, "/"+d.prefix+"-payments", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)
			if w.Code != http.StatusCreated {
				t.Fatalf("create: %d body=%s", w.Code, w.Body.String())
			}

			req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/%s-payments/by-parent/%d", d.prefix, id), nil)
			w = httptest.NewRecorder()
			srv.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("list: %d body=%s", w.Code, w.Body.String())
			}
			var out struct {
				Total int `json:"total"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Total != 1 {
				t.Fatalf("expected one payment, got %d", out.Total)
			}
		})
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	_, srv := setupServer(t)
	req := httptest.NewRequest(http.MethodPost, "/credit-note-payments", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
