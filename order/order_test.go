package order

import (
	"errors"
	"testing"
)

type BracketTest struct {
	Quantity int
	Expected int
}

var BracketTests = []BracketTest{
	{1, 18},
	{18, 18},
	{19, 36},
	{100, 108},
	{612, 612},
	{700, 612},
}

func TestBracketFor(t *testing.T) {
	for _, probe := range BracketTests {
		got := BracketFor(probe.Quantity)
		if got != probe.Expected {
			t.Errorf("FAIL %d: Expected bracket %d, got %d", probe.Quantity, probe.Expected, got)
		}
	}
}

// makeOrder builds an order with one front image spanning quantity
// slots and the shared cardback covering every back slot.
func makeOrder(name string, quantity int, stock Cardstock, foil bool) *CardOrder {
	fronts := NewCardImageCollection(FaceFront)
	fronts.Insert(&CardImage{
		Query:   "island",
		ReqType: RequestCard,
		Slots:   slotRange(0, quantity),
	})

	backs := NewCardImageCollection(FaceBack)
	backs.Insert(&CardImage{
		ID:      "back.png",
		ReqType: RequestCardback,
		Slots:   slotRange(0, quantity),
	})

	return &CardOrder{
		Name: name,
		Details: Details{
			Quantity: quantity,
			Stock:    stock,
			Foil:     foil,
		},
		Fronts: fronts,
		Backs:  backs,
	}
}

func TestCombineSharedCardback(t *testing.T) {
	a := makeOrder("a", 3, StockSmooth, false)
	b := makeOrder("b", 2, StockSmooth, false)

	combined, err := a.Combine(b)
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}

	if combined.Details.Quantity != 5 {
		t.Errorf("FAIL: quantity %d", combined.Details.Quantity)
	}
	if !combined.Details.AllowBeyondMax {
		t.Errorf("FAIL: combined order not exempted from the ceiling")
	}
	if combined.Fronts.NumSlots != 5 || combined.Backs.NumSlots != 5 {
		t.Errorf("FAIL: slot counts %d/%d", combined.Fronts.NumSlots, combined.Backs.NumSlots)
	}

	// Both orders used the same cardback, so it must merge into a
	// single image spanning every back slot.
	if len(combined.Backs.Images) != 1 {
		t.Fatalf("FAIL: %d back images after merge", len(combined.Backs.Images))
	}
	cardback := combined.Backs.Images["back.png"]
	if cardback == nil || !slotsEqual(cardback.Slots, slotRange(0, 5)) {
		t.Errorf("FAIL: cardback slots %v", cardback)
	}
}

func TestCombineFinishMismatch(t *testing.T) {
	a := makeOrder("a", 3, StockSmooth, false)
	b := makeOrder("b", 2, StockLinen, false)

	_, err := a.Combine(b)
	var validation *ValidationError
	if err == nil || !errors.As(err, &validation) {
		t.Errorf("FAIL: Expected ValidationError, got %v", err)
	}
}

func TestSplitEven(t *testing.T) {
	order := makeOrder("big", 10, StockSmooth, false)
	order.Details.MaxProjectSize = 4
	order.Details.AllowBeyondMax = true

	subs, err := order.Split()
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if len(subs) != 3 {
		t.Fatalf("FAIL: Expected 3 sub-orders, got %d", len(subs))
	}

	total := 0
	for i, sub := range subs {
		total += sub.Details.Quantity
		if sub.Details.AllowBeyondMax {
			t.Errorf("FAIL: sub-order %d kept the ceiling exemption", i)
		}

		// Slots re-base to zero in every sub-order
		front := imageByQuery(sub.Fronts, "island")
		if front == nil || !slotsEqual(front.Slots, slotRange(0, sub.Details.Quantity)) {
			t.Errorf("FAIL: sub-order %d front slots %v", i, front)
		}
		cardback := sub.Backs.Images["back.png"]
		if cardback == nil || !slotsEqual(cardback.Slots, slotRange(0, sub.Details.Quantity)) {
			t.Errorf("FAIL: sub-order %d cardback slots %v", i, cardback)
		}
	}
	if total != 10 {
		t.Errorf("FAIL: sub-orders hold %d cards, want 10", total)
	}
	if subs[2].Details.Quantity != 2 {
		t.Errorf("FAIL: remainder %d", subs[2].Details.Quantity)
	}
}

func TestSplitExplicitSizes(t *testing.T) {
	order := makeOrder("big", 10, StockSmooth, false)
	order.Details.MaxProjectSize = 6
	order.Details.AllowBeyondMax = true

	subs, err := order.Split(6, 4)
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if len(subs) != 2 || subs[0].Details.Quantity != 6 || subs[1].Details.Quantity != 4 {
		t.Errorf("FAIL: sub-order sizes %v", subs)
	}

	var validation *ValidationError
	_, err = order.Split(7, 3)
	if err == nil || !errors.As(err, &validation) {
		t.Errorf("FAIL: oversized explicit split accepted: %v", err)
	}
	_, err = order.Split(5, 4)
	if err == nil || !errors.As(err, &validation) {
		t.Errorf("FAIL: short explicit split accepted: %v", err)
	}
}

func TestSplitWithinCeiling(t *testing.T) {
	order := makeOrder("small", 5, StockSmooth, false)

	subs, err := order.Split()
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if len(subs) != 1 || subs[0] != order {
		t.Errorf("FAIL: order within the ceiling was split")
	}
}

type DetailsTest struct {
	Details Details
	Valid   bool
}

var DetailsTests = []DetailsTest{
	{Details{Quantity: 18, Stock: StockSmooth}, true},
	{Details{Quantity: 612, Stock: StockLinen, Foil: true}, true},
	{Details{Quantity: 0, Stock: StockSmooth}, false},
	{Details{Quantity: -4, Stock: StockSmooth}, false},
	{Details{Quantity: 613, Stock: StockSmooth}, false},
	{Details{Quantity: 613, Stock: StockSmooth, AllowBeyondMax: true}, true},
	{Details{Quantity: 10, Stock: Cardstock("cardboard")}, false},
	{Details{Quantity: 10, Stock: StockPlastic, Foil: true}, false},
	{Details{Quantity: 10, Stock: StockPlastic}, true},
}

func TestDetailsValidate(t *testing.T) {
	for _, probe := range DetailsTests {
		err := probe.Details.Validate()
		if probe.Valid && err != nil {
			t.Errorf("FAIL %+v: Unexpected error: %s", probe.Details, err.Error())
		}
		if !probe.Valid && err == nil {
			t.Errorf("FAIL %+v: Expected a validation error", probe.Details)
		}
	}
}

func TestCardstockByName(t *testing.T) {
	stock, found := CardstockByName("linen")
	if !found || stock != StockLinen {
		t.Errorf("FAIL: loose name lookup returned %q", stock)
	}
	stock, found = CardstockByName("(S30) Standard Smooth")
	if !found || stock != StockSmooth {
		t.Errorf("FAIL: full tag lookup returned %q", stock)
	}
	_, found = CardstockByName("vellum")
	if found {
		t.Errorf("FAIL: unknown stock matched")
	}
}

func TestAggregateAndSplit(t *testing.T) {
	orders := []*CardOrder{
		makeOrder("a", 3, StockSmooth, false),
		makeOrder("b", 4, StockSmooth, false),
		makeOrder("c", 2, StockLinen, true),
	}

	out, err := AggregateAndSplit(orders, true)
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if len(out) != 2 {
		t.Fatalf("FAIL: Expected 2 batched orders, got %d", len(out))
	}

	total := 0
	for _, order := range out {
		total += order.Details.Quantity
		err := order.Details.Validate()
		if err != nil {
			t.Errorf("FAIL: batched order invalid: %s", err.Error())
		}
	}
	if total != 9 {
		t.Errorf("FAIL: batched orders hold %d cards, want 9", total)
	}

	// Without combining, each input comes back on its own
	out, err = AggregateAndSplit(orders, false)
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if len(out) != 3 {
		t.Errorf("FAIL: Expected 3 orders without combining, got %d", len(out))
	}
}
