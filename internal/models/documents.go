package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentAggregate holds the derived financial state of a billable document.
// Only the reconciliation engine writes these columns; the literal stored in
// PaymentStatus is family specific (casing, extra states) and is produced by
// the document adapter.
type PaymentAggregate struct {
	PaidAmount      decimal.Decimal `gorm:"type:numeric;default:0" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:numeric;default:0" json:"remaining_amount"`
	PaymentStatus   string          `json:"payment_status"`
}

// Billable is implemented by every document family that accrues payments.
type Billable interface {
	BillableID() uint
	DocumentType() DocumentType
	Number() string
	PayerRef() uint
	Total() decimal.Decimal
	Aggregate() *PaymentAggregate
}

type Quotation struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	QuotationNumber string          `gorm:"uniqueIndex" json:"quotation_number"`
	CustomerID      uint            `gorm:"not null" json:"customer_id"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric;not null" json:"total_amount"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Quotation) BillableID() uint { return d.ID }
func (d *Quotation) DocumentType() DocumentType { return DocQuotation }
func (d *Quotation) Number() string { return d.QuotationNumber }
func (d *Quotation) PayerRef() uint { return d.CustomerID }
func (d *Quotation) Total() decimal.Decimal { return d.TotalAmount }
func (d *Quotation) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }

type Invoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"uniqueIndex" json:"invoice_number"`
	CustomerID    uint            `gorm:"not null" json:"customer_id"`
	GrandTotal    decimal.Decimal `gorm:"type:numeric;not null" json:"grand_total"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Invoice) BillableID() uint { return d.ID }
func (d *Invoice) DocumentType() DocumentType { return DocInvoice }
func (d *Invoice) Number() string { return d.InvoiceNumber }
func (d *Invoice) PayerRef() uint { return d.CustomerID }
func (d *Invoice) Total() decimal.Decimal { return d.GrandTotal }
func (d *Invoice) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }

type PurchaseOrder struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PONumber    string          `gorm:"uniqueIndex" json:"po_number"`
	SupplierID  uint            `gorm:"not null" json:"supplier_id"`
	TotalAmount decimal.Decimal `gorm:"type:numeric;not null" json:"total_amount"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *PurchaseOrder) BillableID() uint { return d.ID }
func (d *PurchaseOrder) DocumentType() DocumentType { return DocPurchaseOrder }
func (d *PurchaseOrder) Number() string { return d.PONumber }
func (d *PurchaseOrder) PayerRef() uint { return d.SupplierID }
func (d *PurchaseOrder) Total() decimal.Decimal { return d.TotalAmount }
func (d *PurchaseOrder) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }

type Proforma struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ProformaNumber string          `gorm:"uniqueIndex" json:"proforma_number"`
	CustomerID     uint            `gorm:"not null" json:"customer_id"`
	GrandTotal     decimal.Decimal `gorm:"type:numeric;not null" json:"grand_total"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Proforma) BillableID() uint { return d.ID }
func (d *Proforma) DocumentType() DocumentType { return DocProforma }
func (d *Proforma) Number() string { return d.ProformaNumber }
func (d *Proforma) PayerRef() uint { return d.CustomerID }
func (d *Proforma) Total() decimal.Decimal { return d.GrandTotal }
func (d *Proforma) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }

type AMCQuotation struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	QuotationNumber string          `gorm:"uniqueIndex" json:"quotation_number"`
	CustomerID      uint            `gorm:"not null" json:"customer_id"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric;not null" json:"total_amount"`
	ContractStart   *time.Time      `json:"contract_start,omitempty"`
	ContractEnd     *time.Time      `json:"contract_end,omitempty"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *AMCQuotation) BillableID() uint { return d.ID }
func (d *AMCQuotation) DocumentType() DocumentType { return DocAMCQuotation }
func (d *AMCQuotation) Number() string { return d.QuotationNumber }
func (d *AMCQuotation) PayerRef() uint { return d.CustomerID }
func (d *AMCQuotation) Total() decimal.Decimal { return d.TotalAmount }
func (d *AMCQuotation) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }

type AMCInvoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"uniqueIndex" json:"invoice_number"`
	CustomerID    uint            `gorm:"not null" json:"customer_id"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric;not null" json:"total_amount"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *AMCInvoice) BillableID() uint { return d.ID }
func (d *AMCInvoice) DocumentType() DocumentType { return DocAMCInvoice }
func (d *AMCInvoice) Number() string { return d.InvoiceNumber }
func (d *AMCInvoice) PayerRef() uint { return d.CustomerID }
func (d *AMCInvoice) Total() decimal.Decimal { return d.TotalAmount }
func (d *AMCInvoice) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }

type DGQuotation struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	QuotationNumber string          `gorm:"uniqueIndex" json:"quotation_number"`
	CustomerID      uint            `gorm:"not null" json:"customer_id"`
	GrandTotal      decimal.Decimal `gorm:"type:numeric;not null" json:"grand_total"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *DGQuotation) BillableID() uint { return d.ID }
func (d *DGQuotation) DocumentType() DocumentType { return DocDGQuotation }
func (d *DGQuotation) Number() string { return d.QuotationNumber }
func (d *DGQuotation) PayerRef() uint { return d.CustomerID }
func (d *DGQuotation) Total() decimal.Decimal { return d.GrandTotal }
func (d *DGQuotation) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }

type DGInvoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"uniqueIndex" json:"invoice_number"`
	CustomerID    uint            `gorm:"not null" json:"customer_id"`
	GrandTotal    decimal.Decimal `gorm:"type:numeric;not null" json:"grand_total"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *DGInvoice) BillableID() uint { return d.ID }
func (d *DGInvoice) DocumentType() DocumentType { return DocDGInvoice }
func (d *DGInvoice) Number() string { return d.InvoiceNumber }
func (d *DGInvoice) PayerRef() uint { return d.CustomerID }
func (d *DGInvoice) Total() decimal.Decimal { return d.GrandTotal }
func (d *DGInvoice) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }

type DGPurchaseOrder struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	PONumber   string          `gorm:"uniqueIndex" json:"po_number"`
	SupplierID uint            `gorm:"not null" json:"supplier_id"`
	GrandTotal decimal.Decimal `gorm:"type:numeric;not null" json:"grand_total"`
	PaymentAggregate
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *DGPurchaseOrder) BillableID() uint { return d.ID }
func (d *DGPurchaseOrder) DocumentType() DocumentType { return DocDGPurchaseOrder }
func (d *DGPurchaseOrder) Number() string { return d.PONumber }
func (d *DGPurchaseOrder) PayerRef() uint { return d.SupplierID }
func (d *DGPurchaseOrder) Total() decimal.Decimal { return d.GrandTotal }
func (d *DGPurchaseOrder) Aggregate() *PaymentAggregate { return &d.PaymentAggregate }
