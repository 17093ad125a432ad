package order

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CardImage is one distinct image to be fetched and uploaded, together
// with the set of slots it fills on one face. The same image may fill
// many slots; duplicates are always merged by identifier, never stored
// twice.
type CardImage struct {
	// Remote identifier: a storage object id, an http(s) link, or a
	// local file path
	ID string

	// Human readable name, as written in the input
	Name string

	// Sanitized search query, empty for images addressed by id only
	Query string

	// Resolved local file path, set before execution begins
	FilePath string

	// What the query asks for
	ReqType RequestType

	// Slots filled by this image, kept sorted and unique
	Slots []int

	Downloaded bool
	Uploaded   bool
	Errored    bool
}

// Identifier returns the deduplication key for this image.
func (card *CardImage) Identifier() string {
	if card.ID != "" {
		return card.ID
	}
	if card.Query != "" {
		return card.ReqType.String() + ":" + card.Query
	}
	if card.Name != "" {
		return "name:" + card.Name
	}
	return "cardback"
}

// AddSlots merges more slots into the image, preserving sorted unique
// order.
func (card *CardImage) AddSlots(slots []int) {
	card.Slots = mergeSlots(card.Slots, slots)
}

// Clone returns a deep copy, detached from the original's slot slice.
func (card *CardImage) Clone() *CardImage {
	out := *card
	out.Slots = append([]int(nil), card.Slots...)
	return &out
}

// ResolveFilePath computes and stores the local path this image
// downloads to. An ID naming an existing local file is used as is.
func (card *CardImage) ResolveFilePath(cacheDir string) string {
	if card.FilePath != "" {
		return card.FilePath
	}

	if card.ID != "" && !strings.HasPrefix(card.ID, "http") {
		info, err := os.Stat(card.ID)
		if err == nil && !info.IsDir() {
			card.FilePath = card.ID
			return card.FilePath
		}
	}

	base := card.Name
	if base == "" {
		base = card.Query
	}
	if base == "" {
		base = "cardback"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, base)

	sum := md5.Sum([]byte(card.Identifier()))
	card.FilePath = filepath.Join(cacheDir, fmt.Sprintf("%s-%s.png", base, hex.EncodeToString(sum[:])[:8]))
	return card.FilePath
}

// DirectLink returns a link the operator can follow to fetch the image
// by hand when automation fails.
func (card *CardImage) DirectLink() string {
	if strings.HasPrefix(card.ID, "http") {
		return card.ID
	}
	if card.ID != "" {
		return "gs://" + card.ID
	}
	return card.FilePath
}

func (card *CardImage) String() string {
	name := card.Name
	if name == "" {
		name = card.Identifier()
	}
	return fmt.Sprintf("%s %v", name, card.Slots)
}

func mergeSlots(dst, src []int) []int {
	seen := make(map[int]bool, len(dst)+len(src))
	for _, slot := range dst {
		seen[slot] = true
	}
	for _, slot := range src {
		if slot < 0 {
			continue
		}
		seen[slot] = true
	}

	out := make([]int, 0, len(seen))
	for slot := range seen {
		out = append(out, slot)
	}
	sort.Ints(out)
	return out
}

func slotRange(start, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = start + i
	}
	return out
}
