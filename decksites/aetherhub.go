package decksites

import (
	"fmt"
	"io"
	"net/http"

	"github.com/mpcautofill/go-autofill/order"
)

const (
	aetherhubBaseURL   = "https://aetherhub.com/Deck"
	aetherhubExportURL = "https://aetherhub.com/Deck/MtgoDeckExport/%s"
)

// Aetherhub serves aetherhub.com deck pages through the site's plain
// text export endpoint.
type Aetherhub struct {
	LogCallback order.LogCallbackFunc

	client *http.Client
}

func NewAetherhub() *Aetherhub {
	return &Aetherhub{
		client: newHTTPClient(),
	}
}

func (ae *Aetherhub) printf(format string, a ...interface{}) {
	if ae.LogCallback != nil {
		ae.LogCallback("[AH] "+format, a...)
	}
}

func (ae *Aetherhub) BaseURL() string {
	return aetherhubBaseURL
}

func (ae *Aetherhub) RetrieveCardList(link string) (string, error) {
	deckID := trailingDigits(lastPathSegment(link))
	if deckID == "" {
		return "", fmt.Errorf("no deck id in %s", link)
	}
	ae.printf("Exporting deck %s", deckID)

	resp, err := ae.client.Get(fmt.Sprintf(aetherhubExportURL, deckID))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
