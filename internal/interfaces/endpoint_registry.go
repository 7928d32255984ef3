package interfaces

import "github.com/kimsangheu/stdpay-gateway/internal/models"

// EndpointRegistry defines the contract for resolving and validating the PG
// endpoints a data center is allowed to use.
type EndpointRegistry interface {
	Resolve(idc string) (models.EndpointPair, bool)
	IsKnownApprovalURL(idc, candidate string) bool
	IsKnownNetCancelURL(idc, candidate string) bool
}
