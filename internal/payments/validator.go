// Package payments holds the payment-method validator and the
// PaymentRecord store. Validation is pure; persistence lives in Store.
package payments

import (
	"encoding/json"

	"github.com/nexbill/payments/internal/apperr"
	"github.com/nexbill/payments/internal/models"
	"github.com/nexbill/payments/internal/validation"
)

// methodKeys maps each payment method to the payload key variants we accept
// (frontend) and the single canonical key we store under (backend).
var methodKeys = map[models.PaymentMethod]struct{ frontend, backend string }{
	models.MethodCash:         {"cash", "cash"},
	models.MethodCheque:       {"cheque", "cheque"},
	models.MethodBankTransfer: {"bank_transfer", "bankTransfer"},
	models.MethodUPI:          {"upi", "upi"},
	models.MethodCard:         {"card", "card"},
	models.MethodOther:        {"other", "other"},
}

// KnownMethods lists the accepted payment method discriminants.
func KnownMethods() []string {
	return []string{
		string(models.MethodCash),
		string(models.MethodCheque),
		string(models.MethodBankTransfer),
		string(models.MethodUPI),
		string(models.MethodCard),
		string(models.MethodOther),
	}
}

// Normalize parses a raw details payload and re-nests it under the canonical
// backend key for the method. The payload may arrive nested under the
// frontend key (bank_transfer), the backend key (bankTransfer), or flat.
// The result has exactly one variant populated, matching the method.
func Normalize(method models.PaymentMethod, raw json.RawMessage) (models.MethodDetails, error) {
	keys, ok := methodKeys[method]
	if !ok {
		return models.MethodDetails{}, apperr.Validation("unknown_payment_method", map[string]string{"payment_method": string(method)})
	}

	body := json.RawMessage("{}")
	if len(raw) > 0 {
		var outer map[string]json.RawMessage
		if err := json.Unmarshal(raw, &outer); err != nil {
			return models.MethodDetails{}, apperr.Validation("invalid_payment_method_details", map[string]string{"payment_method_details": "malformed_json"})
		}
		if b, ok := outer[keys.backend]; ok {
			body = b
		} else if b, ok := outer[keys.frontend]; ok {
			body = b
		} else {
			// flat payload: fields sit at the top level
			body = raw
		}
	}

	var d models.MethodDetails
	var err error
	switch method {
	case models.MethodCash:
		v := &models.CashDetails{}
		err = json.Unmarshal(body, v)
		d.Cash = v
	case models.MethodCheque:
		v := &models.ChequeDetails{}
		err = json.Unmarshal(body, v)
		d.Cheque = v
	case models.MethodBankTransfer:
		v := &models.BankTransferDetails{}
		err = json.Unmarshal(body, v)
		d.BankTransfer = v
	case models.MethodUPI:
		v := &models.UPIDetails{}
		err = json.Unmarshal(body, v)
		d.UPI = v
	case models.MethodCard:
		v := &models.CardDetails{}
		err = json.Unmarshal(body, v)
		d.Card = v
	case models.MethodOther:
		v := &models.OtherDetails{}
		err = json.Unmarshal(body, v)
		d.Other = v
	}
	if err != nil {
		return models.MethodDetails{}, apperr.Validation("invalid_payment_method_details", map[string]string{"payment_method_details": "malformed_json"})
	}
	return d, nil
}

// Validate checks the required sub-fields for the method. The required set
// for bank_transfer is family configuration and comes from the document
// adapter; every other method has a fixed rule.
func Validate(method models.PaymentMethod, d models.MethodDetails, bankTransferRequired []string) validation.Violations {
	v := validation.Violations{}
	switch method {
	case models.MethodCash, models.MethodUPI, models.MethodCard:
		// no required sub-fields
	case models.MethodCheque:
		c := d.Cheque
		if c == nil {
			c = &models.ChequeDetails{}
		}
		validation.Required("paymentMethodDetails.chequeNumber", c.ChequeNumber, v)
		validation.Required("paymentMethodDetails.bankName", c.BankName, v)
		validation.Required("paymentMethodDetails.issueDate", c.IssueDate, v)
	case models.MethodBankTransfer:
		b := d.BankTransfer
		if b == nil {
			b = &models.BankTransferDetails{}
		}
		for _, field := range bankTransferRequired {
			validation.Required("paymentMethodDetails."+field, bankTransferField(b, field), v)
		}
	case models.MethodOther:
		o := d.Other
		if o == nil {
			o = &models.OtherDetails{}
		}
		validation.Required("paymentMethodDetails.methodName", o.MethodName, v)
	default:
		v["paymentMethod"] = "unknown_value"
	}
	return v
}

func bankTransferField(b *models.BankTransferDetails, field string) string {
	switch field {
	case "transferDate":
		return b.TransferDate
	case "bankName":
		return b.BankName
	case "accountNumber":
		return b.AccountNumber
	case "ifscCode":
		return b.IFSCCode
	case "transactionId":
		return b.TransactionID
	}
	return ""
}
