package broker

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"grandmaster/pkg/apierr"
)

// Exchanges eligible for scanning. Everything else (OTC and friends) is
// excluded up front.
var tradableExchanges = map[string]bool{
	"NYSE":   true,
	"NASDAQ": true,
	"AMEX":   true,
	"ARCA":   true,
}

type assetEntry struct {
	Symbol   string `json:"symbol"`
	Class    string `json:"class"`
	Exchange string `json:"exchange"`
	Status   string `json:"status"`
	Tradable bool   `json:"tradable"`
}

// TradableSymbols walks the paginated asset catalogue and returns the
// set of symbols that are active, tradable, equity-class, listed on an
// eligible exchange, and not warrants.
func (c *Client) TradableSymbols() (map[string]struct{}, error) {
	out := make(map[string]struct{})

	for page := 1; ; page++ {
		entries, err := c.assetsPage(page)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}

		for _, a := range entries {
			if !a.Tradable || a.Status != "active" {
				continue
			}
			if a.Class != "" && a.Class != "us_equity" {
				continue
			}
			if !tradableExchanges[strings.ToUpper(a.Exchange)] {
				continue
			}
			if a.Symbol == "" || strings.HasSuffix(a.Symbol, ".W") {
				continue
			}
			out[a.Symbol] = struct{}{}
		}
	}

	c.logger.Info("fetched tradable assets", zap.Int("symbols", len(out)))
	return out, nil
}

func (c *Client) assetsPage(page int) ([]assetEntry, error) {
	url := fmt.Sprintf("%s/v2/assets?status=active&asset_class=us_equity&page=%d&per_page=1000",
		c.config.BaseURL, page)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, apierr.NewTransportError("alpaca assets", 0, err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.config.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.config.APISecret)

	resp, err := c.assets.Do(req)
	if err != nil {
		return nil, apierr.NewTransportError("alpaca assets", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.NewTransportError("alpaca assets", resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.NewTransportError("alpaca assets", 0, err)
	}

	var entries []assetEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, apierr.NewDataError("alpaca assets", err)
	}
	return entries, nil
}
