// Package fulfill drives a parsed card order through the print site's
// multi-step project wizard via an abstracted site driver.
package fulfill

import "github.com/mpcautofill/go-autofill/order"

// SiteDriver is the narrow contract a concrete site automation must
// satisfy. The state machine never depends on any site markup beyond
// these operations, so multiple sites can implement it.
type SiteDriver interface {
	// Project configuration
	SelectStock(stock order.Cardstock) error
	SelectQuantity(quantity int) error
	SelectFoil(foil bool) error

	// Wizard navigation
	NavigateToFronts() error
	NavigateToBacks() error
	NavigateToReview() error

	// Image handling; UploadImage returns an opaque handle later passed
	// to InsertImage
	UploadImage(filePath string) (string, error)
	InsertImage(handle string, slot int) error

	// Resumption support
	IsSlotFilled(slot int) (bool, error)
	HandleForFilledSlot(slot int) (string, error)
}
