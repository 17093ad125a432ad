package decksites

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	colly "github.com/gocolly/colly/v2"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/mpcautofill/go-autofill/order"
)

const (
	mtggoldfishBaseURL = "https://www.mtggoldfish.com/deck"
	mtggoldfishHost    = "www.mtggoldfish.com"
)

// MTGGoldfish scrapes the deck page for its download link, then pulls
// the plain text list from it.
type MTGGoldfish struct {
	LogCallback order.LogCallbackFunc

	client *http.Client
}

func NewMTGGoldfish() *MTGGoldfish {
	return &MTGGoldfish{
		client: newHTTPClient(),
	}
}

func (gf *MTGGoldfish) printf(format string, a ...interface{}) {
	if gf.LogCallback != nil {
		gf.LogCallback("[GF] "+format, a...)
	}
}

func (gf *MTGGoldfish) BaseURL() string {
	return mtggoldfishBaseURL
}

func (gf *MTGGoldfish) RetrieveCardList(link string) (string, error) {
	downloadPath := ""

	c := colly.NewCollector(
		colly.AllowedDomains(mtggoldfishHost),
	)
	c.SetClient(cleanhttp.DefaultClient())

	c.OnHTML(`a[href]`, func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if downloadPath == "" && strings.HasPrefix(href, "/deck/download/") {
			downloadPath = href
		}
	})

	err := c.Visit(link)
	if err != nil {
		return "", err
	}
	c.Wait()

	if downloadPath == "" {
		return "", fmt.Errorf("no download link on %s", link)
	}
	gf.printf("Downloading %s", downloadPath)

	resp, err := gf.client.Get("https://" + mtggoldfishHost + downloadPath)
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
