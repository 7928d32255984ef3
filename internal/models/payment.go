package models

import (
	"encoding/json"
	"net/url"
)

type PaymentState string

const (
	StateReceived           PaymentState = "RECEIVED"
	StateDeclined           PaymentState = "DECLINED"
	StateApproving          PaymentState = "APPROVING"
	StateRejected           PaymentState = "REJECTED"
	StateParsed             PaymentState = "PARSED"
	StateCompensating       PaymentState = "COMPENSATING"
	StateCompensated        PaymentState = "COMPENSATED"
	StateCompensationFailed PaymentState = "COMPENSATION_FAILED"
)

// Result codes on the stdpay wire. 0000 is the only success code; 9999 is
// the generic failure sentinel surfaced to buyers for every internal failure.
const (
	ResultSuccess = "0000"
	ResultFail    = "9999"
)

// PaymentRequest is the signed parameter set posted into the stdpay widget.
// Immutable once built; consumed exactly once by the widget.
type PaymentRequest struct {
	Version      string
	Mid          string
	Oid          string
	Price        string
	Timestamp    string
	Signature    string
	Verification string
	MKey         string
	Currency     string
	GoodName     string
	BuyerName    string
	BuyerTel     string
	BuyerEmail   string
	GoPayMethod  string
	ReturnURL    string
	CloseURL     string
	AcceptMethod string
	UseChkFake   string
}

// FormFields returns the hidden-input set the widget form posts.
func (r *PaymentRequest) FormFields() map[string]string {
	return map[string]string{
		"version":      r.Version,
		"mid":          r.Mid,
		"oid":          r.Oid,
		"price":        r.Price,
		"timestamp":    r.Timestamp,
		"signature":    r.Signature,
		"verification": r.Verification,
		"mKey":         r.MKey,
		"currency":     r.Currency,
		"goodname":     r.GoodName,
		"buyername":    r.BuyerName,
		"buyertel":     r.BuyerTel,
		"buyeremail":   r.BuyerEmail,
		"gopaymethod":  r.GoPayMethod,
		"returnUrl":    r.ReturnURL,
		"closeUrl":     r.CloseURL,
		"acceptmethod": r.AcceptMethod,
		"use_chkfake":  r.UseChkFake,
	}
}

// CallbackPayload is what the widget posts back to returnUrl after checkout.
// It originates from the buyer's browser: every field is untrusted until
// validated, the URLs in particular.
type CallbackPayload struct {
	ResultCode   string `form:"resultCode"`
	ResultMsg    string `form:"resultMsg"`
	Mid          string `form:"mid"`
	AuthToken    string `form:"authToken"`
	AuthURL      string `form:"authUrl"`
	NetCancelURL string `form:"netCancelUrl"`
	IdcName      string `form:"idc_name"`
	MerchantData string `form:"merchantData"`
	OrderNumber  string `form:"orderNumber"`
	Price        string `form:"price"`
	GoodName     string `form:"goodname"`
	BuyerName    string `form:"buyername"`
	BuyerTel     string `form:"buyertel"`
	BuyerEmail   string `form:"buyeremail"`
}

// Authenticated reports whether the widget-level checkout succeeded. Anything
// other than 0000 is a decline and never reaches the approval API.
func (p *CallbackPayload) Authenticated() bool {
	return p.ResultCode == ResultSuccess
}

// ApprovalRequest is the server-to-server approval call body. Signature and
// verification are freshly computed at approval time, never reused from the
// initial checkout request.
type ApprovalRequest struct {
	Mid          string
	AuthToken    string
	Timestamp    string
	Signature    string
	Verification string
	Charset      string
	Format       string
}

func (r *ApprovalRequest) FormValues() url.Values {
	return url.Values{
		"mid":          {r.Mid},
		"authToken":    {r.AuthToken},
		"timestamp":    {r.Timestamp},
		"signature":    {r.Signature},
		"verification": {r.Verification},
		"charset":      {r.Charset},
		"format":       {r.Format},
	}
}

// ApprovalResult is the terminal outcome of one checkout attempt, either
// parsed from the PG approval response or synthesized as a failure record.
type ApprovalResult struct {
	ResultCode string      `json:"resultCode"`
	ResultMsg  string      `json:"resultMsg"`
	Tid        string      `json:"tid"`
	Moid       string      `json:"MOID"`
	TotPrice   json.Number `json:"TotPrice"`
	GoodName   string      `json:"goodName"`
	PayMethod  string      `json:"payMethod"`
	ApplDate   string      `json:"applDate"`
	ApplTime   string      `json:"applTime"`
}

func (r *ApprovalResult) Succeeded() bool {
	return r.ResultCode == ResultSuccess
}

// EndpointPair is the registry-owned endpoint set for one data center.
type EndpointPair struct {
	ApprovalURL  string
	NetCancelURL string
}
