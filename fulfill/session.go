package fulfill

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mpcautofill/go-autofill/order"
)

// State tracks where the session believes the external wizard is. The
// sequence is linear; there are no cycles beyond per-image retries.
type State int

const (
	Initialising State = iota
	DefiningOrder
	PagingToFronts
	InsertingFronts
	PagingToBacks
	InsertingBacks
	PagingToReview
	Finished
)

func (s State) String() string {
	switch s {
	case Initialising:
		return "initialising"
	case DefiningOrder:
		return "defining order"
	case PagingToFronts:
		return "paging to fronts"
	case InsertingFronts:
		return "inserting fronts"
	case PagingToBacks:
		return "paging to backs"
	case InsertingBacks:
		return "inserting backs"
	case PagingToReview:
		return "paging to review"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// InvalidStateError means the session's model of the wizard and the
// real site have diverged; the automation cannot safely continue.
type InvalidStateError struct {
	Op   string
	Have State
	Want State
}

func (err *InvalidStateError) Error() string {
	return fmt.Sprintf("%s requires state %q, session is %q", err.Op, err.Want, err.Have)
}

// FailedImage is one image the run could not place, with enough detail
// for the operator to fix it by hand.
type FailedImage struct {
	Name  string
	Slots []int
	Link  string
}

// Report aggregates non-fatal per-image failures over one run.
type Report struct {
	Failed []FailedImage
}

const (
	defaultUploadRetries = 3
	uploadRetryDelay     = 2 * time.Second
)

// Session wraps one order and its progression through the wizard. It is
// ephemeral; a new session is created per automation run.
type Session struct {
	ID     string
	Driver SiteDriver
	Order  *order.CardOrder

	// Jump straight past project configuration when resuming a
	// partially filled project
	SkipSetup bool

	// Attempts per image upload before giving up on it
	UploadRetries int

	// Pause between upload attempts; uploadRetryDelay when zero
	RetryDelay time.Duration

	// Invoked once per processed image during the inserting stages
	Progress func(card *order.CardImage)

	LogCallback order.LogCallbackFunc

	state     State
	processed int
	report    Report
}

func NewSession(driver SiteDriver, cardOrder *order.CardOrder) *Session {
	return &Session{
		ID:            uuid.New().String(),
		Driver:        driver,
		Order:         cardOrder,
		UploadRetries: defaultUploadRetries,
		state:         Initialising,
	}
}

func (sess *Session) printf(format string, a ...interface{}) {
	if sess.LogCallback != nil {
		sess.LogCallback("[RUN] "+format, a...)
	}
}

// State returns the session's current recorded state.
func (sess *Session) State() State {
	return sess.state
}

// Report returns the failures recorded so far.
func (sess *Session) Report() Report {
	return sess.report
}

func (sess *Session) requireState(op string, want State) error {
	if sess.state != want {
		return &InvalidStateError{Op: op, Have: sess.state, Want: want}
	}
	return nil
}

// DefineOrder selects the stock, quantity and foil options on the
// site, or skips straight ahead when resuming.
func (sess *Session) DefineOrder() error {
	err := sess.requireState("DefineOrder", Initialising)
	if err != nil {
		return err
	}
	sess.state = DefiningOrder

	if sess.SkipSetup {
		sess.printf("Skipping setup, continuing an existing project")
		return nil
	}

	details := sess.Order.Details
	err = sess.Driver.SelectStock(details.Stock)
	if err != nil {
		return err
	}
	err = sess.Driver.SelectQuantity(details.Quantity)
	if err != nil {
		return err
	}
	return sess.Driver.SelectFoil(details.Foil)
}

// PageToFronts navigates the wizard to the front-face entry screen.
func (sess *Session) PageToFronts() error {
	err := sess.requireState("PageToFronts", DefiningOrder)
	if err != nil {
		return err
	}

	err = sess.Driver.NavigateToFronts()
	if err != nil {
		return err
	}
	sess.state = PagingToFronts
	return nil
}

// InsertFronts consumes the front downloads off the completion queue
// and places each image into its slots.
func (sess *Session) InsertFronts(queue <-chan *order.CardImage) error {
	err := sess.requireState("InsertFronts", PagingToFronts)
	if err != nil {
		return err
	}
	sess.state = InsertingFronts

	return sess.insertFace(sess.Order.Fronts, queue)
}

// PageToBacks navigates the wizard to the back-face entry screen.
func (sess *Session) PageToBacks() error {
	err := sess.requireState("PageToBacks", InsertingFronts)
	if err != nil {
		return err
	}

	err = sess.Driver.NavigateToBacks()
	if err != nil {
		return err
	}
	sess.state = PagingToBacks
	return nil
}

// InsertBacks consumes the back downloads off the completion queue and
// places each image into its slots.
func (sess *Session) InsertBacks(queue <-chan *order.CardImage) error {
	err := sess.requireState("InsertBacks", PagingToBacks)
	if err != nil {
		return err
	}
	sess.state = InsertingBacks

	return sess.insertFace(sess.Order.Backs, queue)
}

// PageToReview issues the final navigation to the review screen. A
// failed navigation leaves the session in PagingToReview, pinpointing
// where the run stalled.
func (sess *Session) PageToReview() error {
	err := sess.requireState("PageToReview", InsertingBacks)
	if err != nil {
		return err
	}
	sess.state = PagingToReview

	err = sess.Driver.NavigateToReview()
	if err != nil {
		return err
	}
	sess.state = Finished
	return nil
}

// insertFace pulls exactly one queue item per member image, in
// completion order. Images that never downloaded are counted as
// processed but skipped, so the progress total always completes.
func (sess *Session) insertFace(coll *order.CardImageCollection, queue <-chan *order.CardImage) error {
	for i := 0; i < len(coll.Images); i++ {
		card, ok := <-queue
		if !ok {
			return fmt.Errorf("completion queue closed after %d of %d images", i, len(coll.Images))
		}

		sess.processed++

		if card.Errored || !card.Downloaded {
			sess.fail(card)
		} else {
			err := sess.insertImage(card)
			if err != nil {
				sess.printf("%s: %s", card, err.Error())
				card.Errored = true
				sess.fail(card)
			}
		}

		if sess.Progress != nil {
			sess.Progress(card)
		}
	}
	return nil
}

// insertImage places one downloaded image into every one of its slots
// that is not already filled. When resuming, an already-uploaded
// handle is recovered from any filled slot instead of re-uploading.
func (sess *Session) insertImage(card *order.CardImage) error {
	var unfilled []int
	filledSlot := -1
	for _, slot := range card.Slots {
		filled, err := sess.Driver.IsSlotFilled(slot)
		if err != nil {
			return err
		}
		if filled {
			filledSlot = slot
		} else {
			unfilled = append(unfilled, slot)
		}
	}

	if len(unfilled) == 0 {
		card.Uploaded = true
		return nil
	}

	var handle string
	var err error
	if filledSlot >= 0 {
		handle, err = sess.Driver.HandleForFilledSlot(filledSlot)
		if err != nil {
			return err
		}
	} else {
		handle, err = sess.uploadWithRetries(card.FilePath)
		if err != nil {
			return err
		}
	}
	card.Uploaded = true

	for _, slot := range unfilled {
		err = sess.Driver.InsertImage(handle, slot)
		if err != nil {
			return err
		}
	}
	return nil
}

func (sess *Session) uploadWithRetries(filePath string) (string, error) {
	retries := sess.UploadRetries
	if retries <= 0 {
		retries = 1
	}

	delay := sess.RetryDelay
	if delay <= 0 {
		delay = uploadRetryDelay
	}

	var handle string
	var err error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay * time.Duration(attempt))
		}
		handle, err = sess.Driver.UploadImage(filePath)
		if err == nil {
			return handle, nil
		}
		sess.printf("Upload attempt %d failed: %s", attempt+1, err.Error())
	}
	return "", err
}

func (sess *Session) fail(card *order.CardImage) {
	sess.report.Failed = append(sess.report.Failed, FailedImage{
		Name:  card.Name,
		Slots: append([]int(nil), card.Slots...),
		Link:  card.DirectLink(),
	})
}

// Run executes the full fixed stage sequence: configure, fronts,
// backs, review. Downloads for each face are scheduled on the shared
// pool right before that face is inserted.
func (sess *Session) Run(ctx context.Context, dl *order.DownloadConfig) error {
	err := sess.DefineOrder()
	if err != nil {
		return err
	}

	err = sess.PageToFronts()
	if err != nil {
		return err
	}
	err = sess.InsertFronts(sess.Order.Fronts.DownloadImages(ctx, dl))
	if err != nil {
		return err
	}

	err = sess.PageToBacks()
	if err != nil {
		return err
	}
	err = sess.InsertBacks(sess.Order.Backs.DownloadImages(ctx, dl))
	if err != nil {
		return err
	}

	return sess.PageToReview()
}
