// Package checkout assembles the signed parameter set for one outbound
// payment request.
package checkout

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kimsangheu/stdpay-gateway/internal/models"
	"github.com/kimsangheu/stdpay-gateway/internal/sign"
)

// Params carries the per-checkout inputs. Zero values fall back to the
// defaults the PG test environment accepts.
type Params struct {
	Oid         string
	Price       int64
	GoodName    string
	BuyerName   string
	BuyerTel    string
	BuyerEmail  string
	GoPayMethod string
	ReturnURL   string
	CloseURL    string
}

type Builder struct {
	mid     string
	signKey string
	now     func() time.Time
}

func NewBuilder(mid, signKey string, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{mid: mid, signKey: signKey, now: now}
}

// NewOrderID generates a merchant-scoped order id for one checkout attempt.
func (b *Builder) NewOrderID() string {
	return b.mid + "_" + uuid.New().String()
}

// BuildRequest produces the signed widget parameters. The timestamp is taken
// fresh from the clock on every call; the PG rejects stale timestamps as
// replays.
func (b *Builder) BuildRequest(p Params) *models.PaymentRequest {
	timestamp := strconv.FormatInt(b.now().UnixMilli(), 10)
	price := strconv.FormatInt(p.Price, 10)

	if p.GoPayMethod == "" {
		p.GoPayMethod = "Card:Directbank:vbank"
	}

	return &models.PaymentRequest{
		Version:      "1.0",
		Mid:          b.mid,
		Oid:          p.Oid,
		Price:        price,
		Timestamp:    timestamp,
		Signature:    sign.RequestSignature(p.Oid, price, timestamp),
		Verification: sign.RequestVerification(p.Oid, price, b.signKey, timestamp),
		MKey:         sign.MerchantKeyDigest(b.signKey),
		Currency:     "WON",
		GoodName:     p.GoodName,
		BuyerName:    p.BuyerName,
		BuyerTel:     p.BuyerTel,
		BuyerEmail:   p.BuyerEmail,
		GoPayMethod:  p.GoPayMethod,
		ReturnURL:    p.ReturnURL,
		CloseURL:     p.CloseURL,
		AcceptMethod: "HPP(1):below1000:centerCd(Y)",
		UseChkFake:   "Y",
	}
}
