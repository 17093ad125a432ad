package cardname

import (
	"encoding/json"
	"io"
	"os"
)

// TransformTable is the bidirectional front/back pairing for
// double-faced cards. Keys are stored Sanitize-d, so lookups may be
// performed with raw names.
type TransformTable struct {
	frontToBack map[string]string
	backToFront map[string]string
}

func NewTransformTable() *TransformTable {
	return &TransformTable{
		frontToBack: map[string]string{},
		backToFront: map[string]string{},
	}
}

// Add registers one front/back pairing. Later additions for the same
// front win.
func (tt *TransformTable) Add(front, back string) {
	f := Sanitize(front)
	b := Sanitize(back)
	if f == "" || b == "" {
		return
	}
	tt.frontToBack[f] = b
	tt.backToFront[b] = f
}

// BackFor returns the sanitized back face for a front name, if any.
func (tt *TransformTable) BackFor(front string) (string, bool) {
	back, found := tt.frontToBack[Sanitize(front)]
	return back, found
}

// FrontFor returns the sanitized front face for a back name, if any.
func (tt *TransformTable) FrontFor(back string) (string, bool) {
	front, found := tt.backToFront[Sanitize(back)]
	return front, found
}

func (tt *TransformTable) IsFront(name string) bool {
	_, found := tt.frontToBack[Sanitize(name)]
	return found
}

func (tt *TransformTable) IsBack(name string) bool {
	_, found := tt.backToFront[Sanitize(name)]
	return found
}

func (tt *TransformTable) Len() int {
	return len(tt.frontToBack)
}

// LoadTransformTable reads a front-to-back name mapping in JSON form,
// as exported from a card database.
func LoadTransformTable(r io.Reader) (*TransformTable, error) {
	var pairs map[string]string
	err := json.NewDecoder(r).Decode(&pairs)
	if err != nil {
		return nil, err
	}

	tt := NewTransformTable()
	for front, back := range pairs {
		tt.Add(front, back)
	}
	return tt, nil
}

// LoadTransformTableFile is a convenience wrapper over
// LoadTransformTable for an on-disk mapping.
func LoadTransformTableFile(path string) (*TransformTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadTransformTable(file)
}
