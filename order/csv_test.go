package order

import (
	"testing"
)

func TestFromCSV(t *testing.T) {
	b := newTestBuilder()

	input := "Quantity,Front,Back\n" +
		"2,Island,\n" +
		"1,Huntmaster of the Fells,\n" +
		",Explore,\n" +
		"1,t:Goblin,\n" +
		"1,Forest,t:Saproling\n"

	added, err := b.FromCSV([]byte(input))
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if added != 6 {
		t.Fatalf("FAIL: Expected 6 slots added, got %d", added)
	}

	island := imageByQuery(b.Fronts, "island")
	if island == nil || !slotsEqual(island.Slots, []int{0, 1}) {
		t.Errorf("FAIL: island slots %v", island)
	}

	// Empty back on a DFC front auto-resolves through the transform
	// table
	ravager := imageByQuery(b.Backs, "ravager of fells")
	if ravager == nil || !slotsEqual(ravager.Slots, []int{2}) {
		t.Errorf("FAIL: ravager slots %v", ravager)
	}

	// Blank quantity defaults to one copy
	explore := imageByQuery(b.Fronts, "explore")
	if explore == nil || !slotsEqual(explore.Slots, []int{3}) {
		t.Errorf("FAIL: explore slots %v", explore)
	}

	goblin := imageByQuery(b.Fronts, "goblin")
	if goblin == nil || goblin.ReqType != RequestToken {
		t.Errorf("FAIL: front token not detected: %v", goblin)
	}

	saproling := imageByQuery(b.Backs, "saproling")
	if saproling == nil || saproling.ReqType != RequestToken || !slotsEqual(saproling.Slots, []int{5}) {
		t.Errorf("FAIL: back token not detected: %v", saproling)
	}

	// Everything except the explicit-back record falls to the cardback
	if !slotsEqual(b.Cardback.Slots, []int{0, 1, 3, 4}) {
		t.Errorf("FAIL: cardback slots %v", b.Cardback.Slots)
	}
}

func TestFromCSVHeaderless(t *testing.T) {
	b := newTestBuilder()

	added, err := b.FromCSV([]byte("3,Island,\r\n1,Forest,\r\n"))
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if added != 4 {
		t.Errorf("FAIL: Expected 4 slots added, got %d", added)
	}
}

func TestFromCSVSkipsBadRecords(t *testing.T) {
	b := newTestBuilder()

	input := "Quantity,Front,Back\n" +
		"many,Island,\n" +
		"2,,\n" +
		"1,Forest,\n"

	added, err := b.FromCSV([]byte(input))
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if added != 1 {
		t.Errorf("FAIL: Expected 1 slot added, got %d", added)
	}

	forest := imageByQuery(b.Fronts, "forest")
	if forest == nil || !slotsEqual(forest.Slots, []int{0}) {
		t.Errorf("FAIL: forest slots %v", forest)
	}
}

func TestFromCSVCap(t *testing.T) {
	b := newTestBuilder()
	b.MaxProjectSize = 3

	added, err := b.FromCSV([]byte("Quantity,Front,Back\n5,Island,\n2,Forest,\n"))
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if added != 3 {
		t.Errorf("FAIL: Expected cap at 3, got %d", added)
	}
	if imageByQuery(b.Fronts, "forest") != nil {
		t.Errorf("FAIL: records after the cap were processed")
	}
}

func TestFromCSVByteOrderMark(t *testing.T) {
	b := newTestBuilder()

	added, err := b.FromCSV([]byte("\uFEFFQuantity,Front,Back\n2,Island,\n"))
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if added != 2 {
		t.Errorf("FAIL: Expected 2 slots added, got %d", added)
	}
	if imageByQuery(b.Fronts, "island") == nil {
		t.Errorf("FAIL: BOM-prefixed header not recognized")
	}
}

func TestFromCSVEmpty(t *testing.T) {
	b := newTestBuilder()

	added, err := b.FromCSV([]byte(""))
	if err != nil {
		t.Fatalf("FAIL: Unexpected error: %s", err.Error())
	}
	if added != 0 {
		t.Errorf("FAIL: Expected 0 slots added, got %d", added)
	}
}
