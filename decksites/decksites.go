// Package decksites implements import-site adapters that turn a public
// deck link into plain decklist text, one per supported site.
package decksites

import (
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/mpcautofill/go-autofill/order"
)

// Default returns the full adapter registry in matching order.
func Default() []order.CardListRetriever {
	return []order.CardListRetriever{
		NewAetherhub(),
		NewArchidekt(),
		NewDeckstats(),
		NewMoxfield(),
		NewMTGGoldfish(),
		NewTappedOut(),
	}
}

func newHTTPClient() *http.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient = cleanhttp.DefaultClient()
	client.Logger = nil
	return client.StandardClient()
}

// lastPathSegment returns the final non-empty path element of a link,
// query string excluded.
func lastPathSegment(link string) string {
	link, _, _ = strings.Cut(link, "?")
	link = strings.TrimSuffix(link, "/")
	idx := strings.LastIndex(link, "/")
	if idx < 0 {
		return link
	}
	return link[idx+1:]
}

// trailingDigits extracts the run of digits ending a path segment, the
// form most sites use for deck ids.
func trailingDigits(segment string) string {
	end := len(segment)
	start := end
	for start > 0 && segment[start-1] >= '0' && segment[start-1] <= '9' {
		start--
	}
	return segment[start:end]
}
