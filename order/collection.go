package order

import (
	"fmt"
	"sort"
)

// CardImageCollection holds one face's full set of images keyed by
// identifier, plus the face's total slot count. It is only mutated by
// the parse/combine/split operations; during fulfillment only the
// per-image state flags change.
type CardImageCollection struct {
	Face     Face
	NumSlots int
	Images   map[string]*CardImage
}

func NewCardImageCollection(face Face) *CardImageCollection {
	return &CardImageCollection{
		Face:   face,
		Images: map[string]*CardImage{},
	}
}

// Insert adds an image to the collection. An image already present
// under the same identifier has its slots merged, never overwritten.
// The slot count grows to cover the highest slot seen.
func (coll *CardImageCollection) Insert(card *CardImage) {
	key := card.Identifier()

	existing, found := coll.Images[key]
	if found {
		existing.AddSlots(card.Slots)
		if existing.Name == "" {
			existing.Name = card.Name
		}
		if existing.Query == "" {
			existing.Query = card.Query
		}
		if existing.ID == "" {
			existing.ID = card.ID
		}
	} else {
		coll.Images[key] = card.Clone()
	}

	for _, slot := range card.Slots {
		if slot+1 > coll.NumSlots {
			coll.NumSlots = slot + 1
		}
	}
}

// AllSlots returns the sorted union of every member's slots.
func (coll *CardImageCollection) AllSlots() []int {
	var all []int
	for _, card := range coll.Images {
		all = mergeSlots(all, card.Slots)
	}
	return all
}

// FailedSlots returns the slots owned by errored images. These slots
// count as covered for validation but are reported as failed, never
// silently dropped.
func (coll *CardImageCollection) FailedSlots() []int {
	var failed []int
	for _, card := range coll.Images {
		if card.Errored {
			failed = mergeSlots(failed, card.Slots)
		}
	}
	return failed
}

// CoverageGaps returns the slots in [0, NumSlots) no member image
// fills.
func (coll *CardImageCollection) CoverageGaps() []int {
	covered := make(map[int]bool)
	for _, card := range coll.Images {
		for _, slot := range card.Slots {
			covered[slot] = true
		}
	}

	var gaps []int
	for slot := 0; slot < coll.NumSlots; slot++ {
		if !covered[slot] {
			gaps = append(gaps, slot)
		}
	}
	return gaps
}

// Validate fails hard on an empty face and reports coverage gaps as
// data for the caller to warn about.
func (coll *CardImageCollection) Validate() ([]int, error) {
	if coll.NumSlots == 0 {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("%s face covers no slots", coll.Face),
		}
	}
	if len(coll.Images) == 0 {
		return nil, fmt.Errorf("%s face: %w", coll.Face, ErrNoImages)
	}
	return coll.CoverageGaps(), nil
}

// Combine merges two collections of the same face into a new one whose
// slot count is the sum of both. The other collection's slots are
// offset by this collection's size; images present in both under the
// same identifier have their slot sets merged, which is what lets two
// orders share one common cardback without re-uploading it.
func (coll *CardImageCollection) Combine(other *CardImageCollection) (*CardImageCollection, error) {
	if coll.Face != other.Face {
		return nil, &InvalidFaceError{
			Face: fmt.Sprintf("%s combined with %s", coll.Face, other.Face),
		}
	}

	out := NewCardImageCollection(coll.Face)
	out.NumSlots = coll.NumSlots + other.NumSlots

	for _, card := range coll.Images {
		out.Insert(card)
	}
	for _, card := range other.Images {
		shifted := card.Clone()
		for i := range shifted.Slots {
			shifted.Slots[i] += coll.NumSlots
		}
		out.Insert(shifted)
	}

	return out, nil
}

// slice carves out the sub-collection for slots [lo, hi), re-basing
// slot numbers to be zero-indexed. Images with no slots in the range
// contribute nothing.
func (coll *CardImageCollection) slice(lo, hi int) *CardImageCollection {
	out := NewCardImageCollection(coll.Face)
	out.NumSlots = hi - lo

	keys := make([]string, 0, len(coll.Images))
	for key := range coll.Images {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		card := coll.Images[key]

		var kept []int
		for _, slot := range card.Slots {
			if slot >= lo && slot < hi {
				kept = append(kept, slot-lo)
			}
		}
		if len(kept) == 0 {
			continue
		}

		sub := card.Clone()
		sub.Slots = kept
		out.Insert(sub)
	}

	return out
}
