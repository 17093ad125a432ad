package decksites

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mpcautofill/go-autofill/order"
)

const (
	moxfieldBaseURL = "https://www.moxfield.com/decks"
	moxfieldAPIURL  = "https://api2.moxfield.com/v2/decks/all/%s"
)

// Moxfield serves moxfield.com deck pages through the v2 JSON API.
type Moxfield struct {
	LogCallback order.LogCallbackFunc

	client *http.Client
}

func NewMoxfield() *Moxfield {
	return &Moxfield{
		client: newHTTPClient(),
	}
}

func (mf *Moxfield) printf(format string, a ...interface{}) {
	if mf.LogCallback != nil {
		mf.LogCallback("[MF] "+format, a...)
	}
}

func (mf *Moxfield) BaseURL() string {
	return moxfieldBaseURL
}

type moxfieldDeck struct {
	Mainboard map[string]struct {
		Quantity int `json:"quantity"`
	} `json:"mainboard"`
}

func (mf *Moxfield) RetrieveCardList(link string) (string, error) {
	slug := lastPathSegment(link)
	if slug == "" {
		return "", fmt.Errorf("no deck slug in %s", link)
	}
	mf.printf("Fetching deck %s", slug)

	resp, err := mf.client.Get(fmt.Sprintf(moxfieldAPIURL, slug))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var deck moxfieldDeck
	err = json.NewDecoder(resp.Body).Decode(&deck)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(deck.Mainboard))
	for name := range deck.Mainboard {
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		qty := deck.Mainboard[name].Quantity
		if qty <= 0 {
			continue
		}
		fmt.Fprintf(&builder, "%dx %s\n", qty, name)
	}
	return builder.String(), nil
}
