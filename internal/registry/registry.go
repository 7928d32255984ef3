// Package registry owns the mapping from a PG data-center code to the
// endpoints this service is allowed to dial. The callback payload carries its
// own endpoint claims, but those come from the buyer's browser; only the
// registry-derived URLs are ever used for server-to-server calls, and the
// trust comparison lives here so the boundary stays in one place.
package registry

import "github.com/kimsangheu/stdpay-gateway/internal/models"

type Mode string

const (
	ModeTest       Mode = "test"
	ModeProduction Mode = "production"
)

var productionEndpoints = map[string]models.EndpointPair{
	"fc": {
		ApprovalURL:  "https://fcstdpay.inicis.com/api/payAuth",
		NetCancelURL: "https://fcstdpay.inicis.com/api/netCancel",
	},
	"ks": {
		ApprovalURL:  "https://ksstdpay.inicis.com/api/payAuth",
		NetCancelURL: "https://ksstdpay.inicis.com/api/netCancel",
	},
	"stg": {
		ApprovalURL:  "https://stdpay.inicis.com/api/payAuth",
		NetCancelURL: "https://stdpay.inicis.com/api/netCancel",
	},
}

var testEndpoints = map[string]models.EndpointPair{
	"fc": {
		ApprovalURL:  "https://fcstgstdpay.inicis.com/api/payAuth",
		NetCancelURL: "https://fcstgstdpay.inicis.com/api/netCancel",
	},
	"ks": {
		ApprovalURL:  "https://ksstgstdpay.inicis.com/api/payAuth",
		NetCancelURL: "https://ksstgstdpay.inicis.com/api/netCancel",
	},
	"stg": {
		ApprovalURL:  "https://stgstdpay.inicis.com/api/payAuth",
		NetCancelURL: "https://stgstdpay.inicis.com/api/netCancel",
	},
}

type Registry struct {
	endpoints map[string]models.EndpointPair
	widgetURL string
}

func New(mode Mode) *Registry {
	if mode == ModeProduction {
		return &Registry{
			endpoints: productionEndpoints,
			widgetURL: "https://stdpay.inicis.com/stdjs/INIStdPay.js",
		}
	}
	return &Registry{
		endpoints: testEndpoints,
		widgetURL: "https://stgstdpay.inicis.com/stdjs/INIStdPay.js",
	}
}

// Resolve returns the endpoint pair for a data-center code. Unknown codes
// resolve to nothing; callers must treat that the same as a URL mismatch.
func (r *Registry) Resolve(idc string) (models.EndpointPair, bool) {
	ep, ok := r.endpoints[idc]
	return ep, ok
}

// IsKnownApprovalURL reports whether candidate is exactly the approval URL
// registered for the data center.
func (r *Registry) IsKnownApprovalURL(idc, candidate string) bool {
	ep, ok := r.endpoints[idc]
	return ok && candidate == ep.ApprovalURL
}

// IsKnownNetCancelURL reports whether candidate is exactly the network-cancel
// URL registered for the data center.
func (r *Registry) IsKnownNetCancelURL(idc, candidate string) bool {
	ep, ok := r.endpoints[idc]
	return ok && candidate == ep.NetCancelURL
}

// WidgetScriptURL is the INIStdPay.js location for the active mode.
func (r *Registry) WidgetScriptURL() string {
	return r.widgetURL
}
