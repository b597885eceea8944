package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	DocQuotation       DocumentType = "Quotation"
	DocInvoice         DocumentType = "Invoice"
	DocPurchaseOrder   DocumentType = "PurchaseOrder"
	DocProforma        DocumentType = "Proforma"
	DocAMCQuotation    DocumentType = "AMCQuotation"
	DocAMCInvoice      DocumentType = "AMCInvoice"
	DocDGQuotation     DocumentType = "DGQuotation"
	DocDGInvoice       DocumentType = "DGInvoice"
	DocDGPurchaseOrder DocumentType = "DGPurchaseOrder"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCheque       PaymentMethod = "cheque"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodUPI          PaymentMethod = "upi"
	MethodCard         PaymentMethod = "card"
	MethodOther        PaymentMethod = "other"
)

// PaymentLifecycle is the state of an individual payment transaction, as
// opposed to the derived payment status of the parent document.
type PaymentLifecycle string

const (
	PaymentPending    PaymentLifecycle = "pending"
	PaymentProcessing PaymentLifecycle = "processing"
	PaymentCompleted  PaymentLifecycle = "completed"
	PaymentFailed     PaymentLifecycle = "failed"
	PaymentRefunded   PaymentLifecycle = "refunded"
)

// CanTransitionTo enforces pending -> processing -> completed|failed and
// completed -> refunded. Terminal states have no exits.
func (s PaymentLifecycle) CanTransitionTo(next PaymentLifecycle) bool {
	switch s {
	case PaymentPending:
		return next == PaymentProcessing || next == PaymentCompleted || next == PaymentFailed
	case PaymentProcessing:
		return next == PaymentCompleted || next == PaymentFailed
	case PaymentCompleted:
		return next == PaymentRefunded
	}
	return false
}

type CashDetails struct {
	ReceivedBy    string `json:"receivedBy,omitempty"`
	ReceiptNumber string `json:"receiptNumber,omitempty"`
}

type ChequeDetails struct {
	ChequeNumber  string `json:"chequeNumber"`
	BankName      string `json:"bankName"`
	IssueDate     string `json:"issueDate"`
	BranchName    string `json:"branchName,omitempty"`
	ClearanceDate string `json:"clearanceDate,omitempty"`
}

type BankTransferDetails struct {
	TransferDate  string `json:"transferDate"`
	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	IFSCCode      string `json:"ifscCode,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
}

type UPIDetails struct {
	TransactionID string `json:"transactionId,omitempty"`
	UPIID         string `json:"upiId,omitempty"`
}

type CardDetails struct {
	TransactionID  string `json:"transactionId,omitempty"`
	CardType       string `json:"cardType,omitempty"`
	LastFourDigits string `json:"lastFourDigits,omitempty"`
}

type OtherDetails struct {
	MethodName string `json:"methodName"`
	Reference  string `json:"reference,omitempty"`
}

// MethodDetails is the canonical tagged union for method-specific payment
// details. Exactly one variant is populated, keyed by the canonical backend
// key for the payment method (bank_transfer is stored under bankTransfer).
type MethodDetails struct {
	Cash         *CashDetails         `json:"cash,omitempty"`
	Cheque       *ChequeDetails       `json:"cheque,omitempty"`
	BankTransfer *BankTransferDetails `json:"bankTransfer,omitempty"`
	UPI          *UPIDetails          `json:"upi,omitempty"`
	Card         *CardDetails         `json:"card,omitempty"`
	Other        *OtherDetails        `json:"other,omitempty"`
}

// PaymentRecord is one discrete payment transaction against a billable
// document. The parent's aggregate fields are derived from the full set of
// its records by the reconciliation engine; nothing here is authoritative
// about the parent beyond the denormalized document number.
type PaymentRecord struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	ParentDocumentID   uint             `gorm:"not null;index:idx_payment_parent" json:"parent_document_id"`
	ParentDocumentType DocumentType     `gorm:"not null;index:idx_payment_parent" json:"parent_document_type"`
	DocumentNumber     string           `json:"document_number"`
	PayerID            uint             `gorm:"not null" json:"payer_id"`
	Amount             decimal.Decimal  `gorm:"type:numeric;not null" json:"amount"`
	Currency           string           `gorm:"not null;default:'INR'" json:"currency"`
	PaymentMethod      PaymentMethod    `gorm:"not null" json:"payment_method"`
	MethodDetails      MethodDetails    `gorm:"serializer:json" json:"payment_method_details"`
	PaymentStatus      PaymentLifecycle `gorm:"not null;default:'completed'" json:"payment_status"`
	PaymentDate        time.Time        `json:"payment_date"`
	Notes              string           `json:"notes,omitempty"`
	ReceiptNumber      string           `json:"receipt_number,omitempty"`
	CreatedBy          string           `json:"created_by,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}
