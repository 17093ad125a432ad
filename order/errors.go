package order

import (
	"errors"
	"fmt"
)

// ErrMalformedInput flags a structured input document that cannot be
// parsed at all.
var ErrMalformedInput = errors.New("malformed input file")

// ErrNoImages flags a face collection with no member images.
var ErrNoImages = errors.New("this face has no images")

// ValidationError is fatal to order construction; the operator is shown
// the reason and no partial order may proceed.
type ValidationError struct {
	Reason string
}

func (err *ValidationError) Error() string {
	return "validation failed: " + err.Reason
}

// MissingElementError reports a structured document lacking an expected
// element at an expected position.
type MissingElementError struct {
	Element string
	Index   int
}

func (err *MissingElementError) Error() string {
	return fmt.Sprintf("missing element <%s> at position %d", err.Element, err.Index)
}

// SiteNotSupportedError reports a deck link no registered import site
// can serve.
type SiteNotSupportedError struct {
	URL string
}

func (err *SiteNotSupportedError) Error() string {
	return fmt.Sprintf("no import site supports %s", err.URL)
}

// InvalidFaceError reports an insertion request for a face outside
// front/back.
type InvalidFaceError struct {
	Face string
}

func (err *InvalidFaceError) Error() string {
	return fmt.Sprintf("invalid face %q", err.Face)
}
