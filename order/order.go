// Package order implements the card-order model: slot-indexed
// assignments of card images to the front and back faces of a print
// project, built from decklist text, CSV, or project XML, and batched
// into size-bounded sub-orders for fulfillment.
package order

import (
	"fmt"
	"sort"
)

type LogCallbackFunc func(format string, a ...interface{})

// DefaultProjectMaxSize is the hard ceiling on the number of cards a
// single project may hold.
const DefaultProjectMaxSize = 612

// Brackets lists the discrete project-size tiers offered by the print
// site, in ascending order.
var Brackets = []int{
	18, 36, 55, 72, 90, 108, 126, 144, 162, 180,
	198, 216, 234, 396, 504, 612,
}

// BracketFor returns the smallest bracket that fits the given quantity,
// or the largest bracket if the quantity exceeds every tier.
func BracketFor(quantity int) int {
	for _, bracket := range Brackets {
		if quantity <= bracket {
			return bracket
		}
	}
	return Brackets[len(Brackets)-1]
}

// Face identifies one side of a physical card.
type Face int

const (
	FaceFront Face = iota
	FaceBack
)

func (f Face) String() string {
	switch f {
	case FaceFront:
		return "front"
	case FaceBack:
		return "back"
	}
	return fmt.Sprintf("Face(%d)", int(f))
}

// RequestType distinguishes what kind of image a query asks for.
type RequestType int

const (
	RequestCard RequestType = iota
	RequestToken
	RequestCardback
)

func (rt RequestType) String() string {
	switch rt {
	case RequestCard:
		return "card"
	case RequestToken:
		return "token"
	case RequestCardback:
		return "cardback"
	}
	return fmt.Sprintf("RequestType(%d)", int(rt))
}

// CardOrder aggregates the finish details with the two face
// collections. Its shape is fixed after construction, only the
// per-image download/upload state changes afterwards.
type CardOrder struct {
	Name    string
	Details Details
	Fronts  *CardImageCollection
	Backs   *CardImageCollection
}

// Validate checks the details and both collections. Coverage gaps are
// returned per face so callers can warn without aborting.
func (order *CardOrder) Validate() (frontGaps []int, backGaps []int, err error) {
	err = order.Details.Validate()
	if err != nil {
		return
	}
	frontGaps, err = order.Fronts.Validate()
	if err != nil {
		return
	}
	backGaps, err = order.Backs.Validate()
	return
}

// ResolveFilePaths assigns a local file path to every image in both
// collections. Execution must not begin while any image has an empty
// path.
func (order *CardOrder) ResolveFilePaths(cacheDir string) {
	for _, img := range order.Fronts.Images {
		img.ResolveFilePath(cacheDir)
	}
	for _, img := range order.Backs.Images {
		img.ResolveFilePath(cacheDir)
	}
}

// IsCombinableWith reports whether two orders can be merged into one
// physical project. The print site applies one finish per project, so
// stock and foil must match exactly.
func (order *CardOrder) IsCombinableWith(other *CardOrder) bool {
	return order.Details.Stock == other.Details.Stock &&
		order.Details.Foil == other.Details.Foil
}

// Combine merges two orders sharing the same finish. The result is
// flagged as allowed to exceed the project ceiling since it is expected
// to be split right away.
func (order *CardOrder) Combine(other *CardOrder) (*CardOrder, error) {
	if !order.IsCombinableWith(other) {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("orders %q and %q have different finishes", order.Name, other.Name),
		}
	}

	fronts, err := order.Fronts.Combine(other.Fronts)
	if err != nil {
		return nil, err
	}
	backs, err := order.Backs.Combine(other.Backs)
	if err != nil {
		return nil, err
	}

	details := order.Details
	details.Quantity += other.Details.Quantity
	details.AllowBeyondMax = true

	return &CardOrder{
		Name:    order.Name,
		Details: details,
		Fronts:  fronts,
		Backs:   backs,
	}, nil
}

// Split partitions an oversized order into sub-orders within the
// project ceiling. With no explicit sizes the split is even on the
// maximum size with any remainder last. Explicit sizes must each fit
// the ceiling and sum to the order quantity.
func (order *CardOrder) Split(sizes ...int) ([]*CardOrder, error) {
	max := order.Details.maxSize()
	quantity := order.Details.Quantity

	if len(sizes) == 0 {
		if quantity <= max {
			return []*CardOrder{order}, nil
		}
		for remaining := quantity; remaining > 0; remaining -= max {
			size := remaining
			if size > max {
				size = max
			}
			sizes = append(sizes, size)
		}
	} else {
		total := 0
		for _, size := range sizes {
			if size <= 0 || size > max {
				return nil, &ValidationError{
					Reason: fmt.Sprintf("requested project size %d is outside (0, %d]", size, max),
				}
			}
			total += size
		}
		if total != quantity {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("requested sizes sum to %d, order holds %d cards", total, quantity),
			}
		}
	}

	var out []*CardOrder
	cursor := 0
	for i, size := range sizes {
		details := order.Details
		details.Quantity = size
		details.AllowBeyondMax = false

		sub := &CardOrder{
			Name:    fmt.Sprintf("%s %d", order.Name, i+1),
			Details: details,
			Fronts:  order.Fronts.slice(cursor, cursor+size),
			Backs:   order.Backs.slice(cursor, cursor+size),
		}
		out = append(out, sub)
		cursor += size
	}

	return out, nil
}

// AggregateAndSplit is the batching entry point used before any image
// is downloaded: it groups orders by finish, optionally combines each
// group pairwise, then splits everything back within size bounds.
func AggregateAndSplit(orders []*CardOrder, combine bool) ([]*CardOrder, error) {
	type finish struct {
		stock Cardstock
		foil  bool
	}

	groups := map[finish][]*CardOrder{}
	var keys []finish
	for _, order := range orders {
		key := finish{order.Details.Stock, order.Details.Foil}
		if _, found := groups[key]; !found {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], order)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].stock != keys[j].stock {
			return keys[i].stock < keys[j].stock
		}
		return !keys[i].foil && keys[j].foil
	})

	var out []*CardOrder
	for _, key := range keys {
		group := groups[key]

		if combine {
			merged := group[0]
			for _, other := range group[1:] {
				var err error
				merged, err = merged.Combine(other)
				if err != nil {
					return nil, err
				}
			}
			group = []*CardOrder{merged}
		}

		for _, order := range group {
			subs, err := order.Split()
			if err != nil {
				return nil, err
			}
			out = append(out, subs...)
		}
	}

	return out, nil
}
