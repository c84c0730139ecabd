// Package policy holds the pure authorization decision functions. Every
// mutating or role-scoped operation calls exactly one of these before
// touching the store; the functions have no side effects and no I/O, so the
// rules stay testable in isolation. A false answer is surfaced to the user
// as a forbidden outcome, never swallowed.
package policy

import (
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

// CanCreateProduct: only farmers list crops.
func CanCreateProduct(actor models.Actor) bool {
	return actor.Role == models.RoleFarmer
}

// CanModifyProduct: only the owning farmer edits or deletes a product.
// Other farmers are just as forbidden as buyers.
func CanModifyProduct(actor models.Actor, product *models.Product) bool {
	return actor.ID == product.FarmerID
}

// CanSendInquiry: only buyers inquire. The product is part of the contract
// so an ownership exclusion has a single place to live if roles ever become
// multi-valued; with single-valued roles a buyer can never own the product.
func CanSendInquiry(actor models.Actor, product *models.Product) bool {
	_ = product
	return actor.Role == models.RoleBuyer
}

// CanUpdateInquiryStatus: only the farmer owning the inquiry's product may
// move its status.
func CanUpdateInquiryStatus(actor models.Actor, product *models.Product) bool {
	return actor.ID == product.FarmerID
}

// CanUpsertMarketRate: market rates are reference data managed by admins.
func CanUpsertMarketRate(actor models.Actor) bool {
	return actor.IsAdmin
}

// InquiryScope says whose inquiries an actor sees in the shared inquiry
// list: buyers see the inquiries they made, farmers the ones against their
// products. Viewing is always allowed; only the scope differs.
type InquiryScope int

const (
	ScopeAsBuyer InquiryScope = iota
	ScopeAsFarmer
)

func InquiryScopeFor(actor models.Actor) InquiryScope {
	if actor.Role == models.RoleFarmer {
		return ScopeAsFarmer
	}
	return ScopeAsBuyer
}
