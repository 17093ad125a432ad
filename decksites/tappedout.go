package decksites

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mpcautofill/go-autofill/order"
)

const tappedoutBaseURL = "https://tappedout.net/mtg-decks"

// TappedOut scrapes the deck page's board list directly.
type TappedOut struct {
	LogCallback order.LogCallbackFunc

	client *http.Client
}

func NewTappedOut() *TappedOut {
	return &TappedOut{
		client: newHTTPClient(),
	}
}

func (to *TappedOut) printf(format string, a ...interface{}) {
	if to.LogCallback != nil {
		to.LogCallback("[TO] "+format, a...)
	}
}

func (to *TappedOut) BaseURL() string {
	return tappedoutBaseURL
}

func (to *TappedOut) RetrieveCardList(link string) (string, error) {
	resp, err := to.client.Get(link)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	doc.Find(`ul.boardlist li.member`).Each(func(i int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(`a.card-link`).First().Text())
		if name == "" {
			name, _ = s.Find(`a[data-name]`).First().Attr("data-name")
			name = strings.TrimSpace(name)
		}
		if name == "" {
			return
		}

		qty := 1
		qtyStr, found := s.Find(`a.qty`).First().Attr("data-qty")
		if found {
			parsed, err := strconv.Atoi(strings.TrimSpace(qtyStr))
			if err == nil && parsed > 0 {
				qty = parsed
			}
		}

		fmt.Fprintf(&builder, "%dx %s\n", qty, name)
	})

	if builder.Len() == 0 {
		return "", fmt.Errorf("no cards found on %s", link)
	}
	return builder.String(), nil
}
