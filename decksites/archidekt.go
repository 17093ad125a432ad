package decksites

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mpcautofill/go-autofill/order"
)

const (
	archidektBaseURL = "https://archidekt.com/decks"
	archidektAPIURL  = "https://archidekt.com/api/decks/%s/"
)

// Archidekt serves archidekt.com deck pages through the public JSON
// API.
type Archidekt struct {
	LogCallback order.LogCallbackFunc

	client *http.Client
}

func NewArchidekt() *Archidekt {
	return &Archidekt{
		client: newHTTPClient(),
	}
}

func (ad *Archidekt) printf(format string, a ...interface{}) {
	if ad.LogCallback != nil {
		ad.LogCallback("[AD] "+format, a...)
	}
}

func (ad *Archidekt) BaseURL() string {
	return archidektBaseURL
}

type archidektDeck struct {
	Cards []struct {
		Quantity int `json:"quantity"`
		Card     struct {
			OracleCard struct {
				Name string `json:"name"`
			} `json:"oracleCard"`
		} `json:"card"`
	} `json:"cards"`
}

func (ad *Archidekt) RetrieveCardList(link string) (string, error) {
	rest := strings.TrimPrefix(link, archidektBaseURL+"/")
	deckID, _, _ := strings.Cut(rest, "/")
	deckID = trailingDigits(deckID)
	if deckID == "" {
		return "", fmt.Errorf("no deck id in %s", link)
	}
	ad.printf("Fetching deck %s", deckID)

	resp, err := ad.client.Get(fmt.Sprintf(archidektAPIURL, deckID))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var deck archidektDeck
	err = json.NewDecoder(resp.Body).Decode(&deck)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, entry := range deck.Cards {
		if entry.Quantity <= 0 || entry.Card.OracleCard.Name == "" {
			continue
		}
		fmt.Fprintf(&builder, "%dx %s\n", entry.Quantity, entry.Card.OracleCard.Name)
	}
	return builder.String(), nil
}
