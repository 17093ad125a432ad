package order

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/mpcautofill/go-autofill/cardname"
)

// CSVHeader is the canonical header of a card list CSV. Files missing
// it have it prepended rather than rejected.
var CSVHeader = []string{"Quantity", "Front", "Back"}

// decodeText sniffs the charset of raw input bytes and decodes them to
// UTF-8. Unknown or already-UTF-8 input passes through unchanged.
func decodeText(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil {
		return string(data)
	}

	enc, err := ianaindex.IANA.Encoding(result.Charset)
	if err != nil || enc == nil {
		return string(data)
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// FromCSV imports a Quantity,Front,Back card list. Records with a
// blank quantity default to one copy; records with an unparseable
// quantity or an empty Front are skipped. An empty Back goes through
// DFC auto-resolution on the front, otherwise falls back to the common
// cardback. Returns the number of slots added.
func (b *Builder) FromCSV(data []byte) (int, error) {
	text := decodeText(data)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}

	header := strings.Join(CSVHeader, ",")
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.TrimSpace(firstLine) != header {
		b.printf("Header missing, assuming %s", header)
		text = header + "\n" + text
	}

	csvReader := csv.NewReader(strings.NewReader(text))
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	// Skip the header
	_, err := csvReader.Read()
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrMalformedInput, err.Error())
	}

	added := 0
	cursor := b.Fronts.NumSlots

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return added, fmt.Errorf("%w: %s", ErrMalformedInput, err.Error())
		}
		for len(record) < len(CSVHeader) {
			record = append(record, "")
		}

		qty := 1
		qtyStr := strings.TrimSpace(record[0])
		if qtyStr != "" {
			qty, err = strconv.Atoi(qtyStr)
			if err != nil {
				b.printf("Skipping record with quantity %q", qtyStr)
				continue
			}
		}

		front := strings.TrimSpace(record[1])
		if front == "" {
			continue
		}
		back := strings.TrimSpace(record[2])

		if cursor+added+qty > b.maxSize() {
			qty = b.maxSize() - cursor - added
		}
		if qty <= 0 {
			break
		}
		slots := slotRange(cursor+added, qty)

		frontQuery, frontToken := cardname.IsToken(front)
		frontType := RequestCard
		if frontToken {
			frontType = RequestToken
		}
		frontKey := cardname.Sanitize(frontQuery)

		backKey := ""
		backType := RequestCard
		if back == "" {
			if !frontToken {
				backKey, _ = b.Transforms.BackFor(frontKey)
			}
		} else {
			backQuery, backToken := cardname.IsToken(back)
			if backToken {
				backType = RequestToken
			}
			backKey = cardname.Sanitize(backQuery)
		}

		err = b.insertNamed(FaceFront, frontKey, frontQuery, frontType, slots)
		if err != nil {
			return added, err
		}
		if backKey != "" {
			err = b.insertNamed(FaceBack, backKey, backKey, backType, slots)
			if err != nil {
				return added, err
			}
		} else {
			b.addToCardback(slots)
		}

		added += qty
	}

	return added, nil
}
