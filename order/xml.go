package order

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/mpcautofill/go-autofill/cardname"
)

// Child positions of the expected elements under <order>.
const (
	xmlPosDetails = iota
	xmlPosFronts
	xmlPosBacks
	xmlPosCardback
)

// FromXML imports a structured project document, offsetting every slot
// by offset and discarding slots at or beyond the project ceiling.
// Front records carrying a query become named cards; back records
// without one are routed into the common-cardback bucket. Returns the
// number of front slots added.
func (b *Builder) FromXML(data []byte, offset int) (int, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrMalformedInput, err.Error())
	}

	root := xmlquery.FindOne(doc, "//order")
	if root == nil {
		return 0, fmt.Errorf("%w: no order element", ErrMalformedInput)
	}

	detailsNode := xmlquery.FindOne(root, "details")
	if detailsNode == nil {
		return 0, &MissingElementError{Element: "details", Index: xmlPosDetails}
	}
	details, err := parseXMLDetails(detailsNode)
	if err != nil {
		return 0, err
	}
	b.Details = &details

	frontsNode := xmlquery.FindOne(root, "fronts")
	if frontsNode == nil {
		return 0, &MissingElementError{Element: "fronts", Index: xmlPosFronts}
	}

	added, err := b.insertXMLFace(FaceFront, frontsNode, offset)
	if err != nil {
		return 0, err
	}

	usedBack := map[int]bool{}
	backsNode := xmlquery.FindOne(root, "backs")
	if backsNode != nil {
		_, err = b.insertXMLFace(FaceBack, backsNode, offset)
		if err != nil {
			return added, err
		}
		for _, node := range xmlquery.Find(backsNode, "card") {
			for _, slot := range b.parseXMLSlots(node, offset) {
				usedBack[slot] = true
			}
		}
	}

	cardbackNode := xmlquery.FindOne(root, "cardback")
	if cardbackNode == nil {
		return added, &MissingElementError{Element: "cardback", Index: xmlPosCardback}
	}
	if id := strings.TrimSpace(cardbackNode.InnerText()); id != "" && b.Cardback.ID == "" {
		b.Cardback.ID = id
	}

	// Every slot in the contiguous range spanned by the fronts that no
	// back record claims falls through to the common cardback.
	frontSlots := b.Fronts.AllSlots()
	if len(frontSlots) > 0 {
		lo := frontSlots[0]
		hi := frontSlots[len(frontSlots)-1]
		var missing []int
		for slot := lo; slot <= hi; slot++ {
			if !usedBack[slot] {
				missing = append(missing, slot)
			}
		}
		b.addToCardback(missing)
	}

	return added, nil
}

func (b *Builder) insertXMLFace(face Face, faceNode *xmlquery.Node, offset int) (int, error) {
	added := 0
	for _, node := range xmlquery.Find(faceNode, "card") {
		slots := b.parseXMLSlots(node, offset)
		if len(slots) == 0 {
			continue
		}

		id := xmlChildText(node, "id")
		name := xmlChildText(node, "name")
		query := xmlChildText(node, "query")

		if query == "" && face == FaceBack {
			if b.Cardback.ID == "" {
				b.Cardback.ID = id
			}
			b.addToCardback(slots)
			continue
		}

		coll, err := b.collection(face)
		if err != nil {
			return added, err
		}
		reqType := RequestCard
		stripped, token := cardname.IsToken(query)
		if token {
			reqType = RequestToken
		}
		coll.Insert(&CardImage{
			ID:      id,
			Name:    name,
			Query:   cardname.Sanitize(stripped),
			ReqType: reqType,
			Slots:   slots,
		})
		added += len(slots)
	}
	return added, nil
}

// parseXMLSlots reads a bracketed comma list such as "[1,2,5]",
// applying the offset and dropping anything at or past the ceiling.
func (b *Builder) parseXMLSlots(node *xmlquery.Node, offset int) []int {
	raw := xmlChildText(node, "slots")
	raw = strings.Trim(raw, "[]")

	var out []int
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		slot, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		slot += offset
		if slot >= b.maxSize() {
			continue
		}
		out = append(out, slot)
	}
	return out
}

func xmlChildText(node *xmlquery.Node, name string) string {
	child := xmlquery.FindOne(node, name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.InnerText())
}

func parseXMLDetails(node *xmlquery.Node) (Details, error) {
	var details Details

	qtyStr := xmlChildText(node, "quantity")
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return details, fmt.Errorf("%w: quantity %q", ErrMalformedInput, qtyStr)
	}
	details.Quantity = qty

	stockStr := xmlChildText(node, "stock")
	stock, found := CardstockByName(stockStr)
	if !found {
		stock = Cardstock(stockStr)
	}
	details.Stock = stock

	details.Foil = strings.EqualFold(xmlChildText(node, "foil"), "true")

	return details, nil
}

type xmlCard struct {
	ID    string `xml:"id"`
	Slots string `xml:"slots"`
	Name  string `xml:"name"`
	Query string `xml:"query,omitempty"`
}

type xmlFaceExport struct {
	Cards []xmlCard `xml:"card"`
}

type xmlDetailsExport struct {
	Quantity int    `xml:"quantity"`
	Bracket  int    `xml:"bracket"`
	Stock    string `xml:"stock"`
	Foil     bool   `xml:"foil"`
}

type xmlOrderExport struct {
	XMLName  xml.Name         `xml:"order"`
	Details  xmlDetailsExport `xml:"details"`
	Fronts   xmlFaceExport    `xml:"fronts"`
	Backs    xmlFaceExport    `xml:"backs"`
	Cardback string           `xml:"cardback"`
}

func formatSlots(slots []int) string {
	fields := make([]string, len(slots))
	for i, slot := range slots {
		fields[i] = strconv.Itoa(slot)
	}
	return "[" + strings.Join(fields, ",") + "]"
}

func exportFace(coll *CardImageCollection, skipCardback bool) (xmlFaceExport, string) {
	var face xmlFaceExport
	cardbackID := ""

	keys := make([]string, 0, len(coll.Images))
	for key := range coll.Images {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		card := coll.Images[key]
		if skipCardback && card.ReqType == RequestCardback {
			cardbackID = card.ID
			continue
		}
		face.Cards = append(face.Cards, xmlCard{
			ID:    card.ID,
			Slots: formatSlots(card.Slots),
			Name:  card.Name,
			Query: card.Query,
		})
	}
	return face, cardbackID
}

// WriteXML serializes the order back into the structured project
// format, so split sub-orders can be saved and re-run on their own.
func (order *CardOrder) WriteXML(w io.Writer) error {
	fronts, _ := exportFace(order.Fronts, false)
	backs, cardbackID := exportFace(order.Backs, true)

	out := xmlOrderExport{
		Details: xmlDetailsExport{
			Quantity: order.Details.Quantity,
			Bracket:  BracketFor(order.Details.Quantity),
			Stock:    string(order.Details.Stock),
			Foil:     order.Details.Foil,
		},
		Fronts:   fronts,
		Backs:    backs,
		Cardback: cardbackID,
	}

	_, err := io.WriteString(w, xml.Header)
	if err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "    ")
	return encoder.Encode(out)
}
