package decksites

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mpcautofill/go-autofill/order"
)

const deckstatsBaseURL = "https://deckstats.net/decks"

// Deckstats serves deckstats.net deck pages through the export_dec
// plain text endpoint.
type Deckstats struct {
	LogCallback order.LogCallbackFunc

	client *http.Client
}

func NewDeckstats() *Deckstats {
	return &Deckstats{
		client: newHTTPClient(),
	}
}

func (ds *Deckstats) printf(format string, a ...interface{}) {
	if ds.LogCallback != nil {
		ds.LogCallback("[DS] "+format, a...)
	}
}

func (ds *Deckstats) BaseURL() string {
	return deckstatsBaseURL
}

func (ds *Deckstats) RetrieveCardList(link string) (string, error) {
	link, _, _ = strings.Cut(link, "?")
	ds.printf("Exporting %s", link)

	resp, err := ds.client.Get(link + "?export_dec=1")
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

	// Drop comment lines and sideboard markers from the dec format
	var builder strings.Builder
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		line = strings.TrimPrefix(line, "SB: ")
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
