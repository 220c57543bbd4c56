// Copyright 2022-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/quantlab/portrisk/dataframe"
)

// QuoteClient fetches last trade prices from an HTTP quote service
type QuoteClient struct {
	baseURL string
	client  *http.Client
}

// NewQuoteClient creates a quote client from the quotes.url viper key
func NewQuoteClient() *QuoteClient {
	return &QuoteClient{
		baseURL: viper.GetString("quotes.url"),
		client:  http.DefaultClient,
	}
}

type quoteResponse struct {
	Ticker string  `json:"ticker"`
	Last   float64 `json:"last"`
}

// LastPrice fetches the last trade price for each ticker
func (c *QuoteClient) LastPrice(ctx context.Context, tickers []string) (map[string]float64, error) {
	subLog := log.With().Strs("Tickers", tickers).Str("BaseURL", c.baseURL).Logger()

	url := fmt.Sprintf("%s/v1/quotes?tickers=%s", c.baseURL, strings.Join(tickers, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("quote request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		subLog.Error().Int("StatusCode", resp.StatusCode).Msg("quote service returned non-200 status")
		return nil, fmt.Errorf("quote service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var quotes []quoteResponse
	if err := json.Unmarshal(body, &quotes); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not decode quote response")
		return nil, err
	}

	res := make(map[string]float64, len(tickers))
	for _, q := range quotes {
		res[q.Ticker] = q.Last
	}

	for _, ticker := range tickers {
		if _, ok := res[ticker]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
		}
	}

	return res, nil
}

type quotedProvider struct {
	history Provider
	quotes  *QuoteClient
}

// WithLiveQuotes returns a provider that serves price history from `history`
// but last trade prices from the quote service
func WithLiveQuotes(history Provider, quotes *QuoteClient) Provider {
	return &quotedProvider{
		history: history,
		quotes:  quotes,
	}
}

func (p *quotedProvider) AdjustedClose(ctx context.Context, tickers []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	return p.history.AdjustedClose(ctx, tickers, begin, end)
}

func (p *quotedProvider) LastPrice(ctx context.Context, tickers []string) (map[string]float64, error) {
	return p.quotes.LastPrice(ctx, tickers)
}
