package order

import (
	"fmt"
	"strings"
)

// Cardstock identifies one of the print site's paper types.
type Cardstock string

const (
	StockSmooth         Cardstock = "(S30) Standard Smooth"
	StockSuperiorSmooth Cardstock = "(S33) Superior Smooth"
	StockLinen          Cardstock = "(M31) Linen"
	StockPlastic        Cardstock = "(P10) Plastic"
)

// AllCardstocks lists every stock the print site offers.
var AllCardstocks = []Cardstock{
	StockSmooth,
	StockSuperiorSmooth,
	StockLinen,
	StockPlastic,
}

// CardstockByName matches a stock by its full tag or by the loose name
// after the parenthesized code, case insensitively.
func CardstockByName(name string) (Cardstock, bool) {
	for _, stock := range AllCardstocks {
		tag := string(stock)
		if strings.EqualFold(tag, name) {
			return stock, true
		}
		if idx := strings.Index(tag, ") "); idx >= 0 && strings.EqualFold(tag[idx+2:], name) {
			return stock, true
		}
	}
	return "", false
}

// Details holds the finish settings shared by every card in one order.
type Details struct {
	Quantity int
	Stock    Cardstock
	Foil     bool

	// Set transiently while combining orders that will be split right
	// away
	AllowBeyondMax bool

	// Zero means DefaultProjectMaxSize
	MaxProjectSize int
}

func (details Details) maxSize() int {
	if details.MaxProjectSize > 0 {
		return details.MaxProjectSize
	}
	return DefaultProjectMaxSize
}

// NewDetails constructs and validates in one step; a failure here is
// fatal to the whole order.
func NewDetails(quantity int, stock Cardstock, foil bool) (Details, error) {
	details := Details{
		Quantity: quantity,
		Stock:    stock,
		Foil:     foil,
	}
	return details, details.Validate()
}

// Validate rejects a quantity outside (0, max] unless exempted, a stock
// outside the enumerated set, and the foil/plastic combination the
// print site does not offer.
func (details Details) Validate() error {
	if details.Quantity <= 0 {
		return &ValidationError{
			Reason: fmt.Sprintf("quantity %d is not positive", details.Quantity),
		}
	}
	if !details.AllowBeyondMax && details.Quantity > details.maxSize() {
		return &ValidationError{
			Reason: fmt.Sprintf("quantity %d exceeds the maximum project size %d", details.Quantity, details.maxSize()),
		}
	}

	known := false
	for _, stock := range AllCardstocks {
		if details.Stock == stock {
			known = true
			break
		}
	}
	if !known {
		return &ValidationError{
			Reason: fmt.Sprintf("unknown cardstock %q", string(details.Stock)),
		}
	}

	if details.Stock == StockPlastic && details.Foil {
		return &ValidationError{
			Reason: "foil is not available on plastic stock",
		}
	}

	return nil
}
