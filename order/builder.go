package order

import (
	"strings"

	"github.com/mpcautofill/go-autofill/cardname"
)

// CardListRetriever is the narrow interface an import-site adapter
// exposes: a base URL prefix to match deck links against, and a way to
// turn one deck link into plain decklist text.
type CardListRetriever interface {
	BaseURL() string
	RetrieveCardList(link string) (string, error)
}

// Builder accumulates slot assignments into the front and back
// collections plus the common-cardback bucket, from any of the
// supported input formats.
type Builder struct {
	Fronts *CardImageCollection
	Backs  *CardImageCollection

	// The single shared back applied to all back slots not otherwise
	// assigned
	Cardback *CardImage

	// Front/back pairings for double-faced cards
	Transforms *cardname.TransformTable

	// Import-site adapters consulted by FromLink, in order
	Retrievers []CardListRetriever

	// Details parsed from a structured input, if any
	Details *Details

	// Zero means DefaultProjectMaxSize
	MaxProjectSize int

	LogCallback LogCallbackFunc
}

func NewBuilder(transforms *cardname.TransformTable) *Builder {
	if transforms == nil {
		transforms = cardname.NewTransformTable()
	}
	return &Builder{
		Fronts:     NewCardImageCollection(FaceFront),
		Backs:      NewCardImageCollection(FaceBack),
		Cardback:   &CardImage{ReqType: RequestCardback},
		Transforms: transforms,
	}
}

func (b *Builder) printf(format string, a ...interface{}) {
	if b.LogCallback != nil {
		b.LogCallback("[BLD] "+format, a...)
	}
}

func (b *Builder) maxSize() int {
	if b.MaxProjectSize > 0 {
		return b.MaxProjectSize
	}
	return DefaultProjectMaxSize
}

// resolveFaces applies the shared face-resolution algorithm to one
// query: an explicit DFC pair when both halves are known transform
// faces, a token when the t: prefix is present, otherwise a plain card
// with the back auto-populated from the transform table when the front
// is a known DFC.
func (b *Builder) resolveFaces(query string) (front string, back string, reqType RequestType) {
	half1, half2 := cardname.SplitFaces(query)
	if half2 != "" && b.Transforms.IsFront(half1) && b.Transforms.IsBack(half2) {
		return cardname.Sanitize(half1), cardname.Sanitize(half2), RequestCard
	}

	name, token := cardname.IsToken(query)
	if token {
		return cardname.Sanitize(name), "", RequestToken
	}

	front = cardname.Sanitize(query)
	back, _ = b.Transforms.BackFor(front)
	return front, back, RequestCard
}

func (b *Builder) addToCardback(slots []int) {
	b.Cardback.AddSlots(slots)
}

// insertNamed routes one resolved query into the requested face.
func (b *Builder) insertNamed(face Face, query, name string, reqType RequestType, slots []int) error {
	coll, err := b.collection(face)
	if err != nil {
		return err
	}
	coll.Insert(&CardImage{
		Name:    name,
		Query:   query,
		ReqType: reqType,
		Slots:   slots,
	})
	return nil
}

func (b *Builder) collection(face Face) (*CardImageCollection, error) {
	switch face {
	case FaceFront:
		return b.Fronts, nil
	case FaceBack:
		return b.Backs, nil
	}
	return nil, &InvalidFaceError{Face: face.String()}
}

// FromText imports free decklist text, one entry per line, assigning
// contiguous slots starting at offset. Quantities are capped so the
// total never exceeds the project ceiling; once the cap bites, the
// remaining lines are dropped. Returns the number of slots added.
func (b *Builder) FromText(text string, offset int) (int, error) {
	added := 0

	for _, line := range strings.Split(text, "\n") {
		name, qty, ok := cardname.ParseLine(line)
		if !ok {
			continue
		}

		capped := false
		if offset+added+qty > b.maxSize() {
			qty = b.maxSize() - offset - added
			capped = true
			b.printf("Capping %q to %d copies, project is full", name, qty)
		}
		if qty <= 0 {
			if capped {
				break
			}
			continue
		}

		slots := slotRange(offset+added, qty)

		front, back, reqType := b.resolveFaces(name)
		err := b.insertNamed(FaceFront, front, name, reqType, slots)
		if err != nil {
			return added, err
		}
		if back != "" {
			err = b.insertNamed(FaceBack, back, back, RequestCard, slots)
			if err != nil {
				return added, err
			}
		} else {
			b.addToCardback(slots)
		}

		added += qty
		if capped {
			break
		}
	}

	return added, nil
}

// FromLink feeds a deck link through the first registered import-site
// adapter whose base URL matches, then imports the returned text.
func (b *Builder) FromLink(link string, offset int) (int, error) {
	for _, retriever := range b.Retrievers {
		if !strings.HasPrefix(link, retriever.BaseURL()) {
			continue
		}

		text, err := retriever.RetrieveCardList(link)
		if err != nil {
			return 0, err
		}
		return b.FromText(text, offset)
	}

	return 0, &SiteNotSupportedError{URL: link}
}

// Build assembles the final CardOrder: the back collection is widened
// to span every front slot and the common cardback bucket becomes a
// single member image covering all unassigned back slots.
func (b *Builder) Build(name string, details Details) (*CardOrder, error) {
	details.Quantity = b.Fronts.NumSlots
	err := details.Validate()
	if err != nil {
		return nil, err
	}

	backs := NewCardImageCollection(FaceBack)
	for _, card := range b.Backs.Images {
		backs.Insert(card)
	}
	if len(b.Cardback.Slots) > 0 {
		backs.Insert(b.Cardback)
	}
	backs.NumSlots = b.Fronts.NumSlots

	fronts := NewCardImageCollection(FaceFront)
	for _, card := range b.Fronts.Images {
		fronts.Insert(card)
	}
	fronts.NumSlots = b.Fronts.NumSlots

	return &CardOrder{
		Name:    name,
		Details: details,
		Fronts:  fronts,
		Backs:   backs,
	}, nil
}
