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
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/quantlab/portrisk/common"
	"github.com/quantlab/portrisk/database"
	"github.com/quantlab/portrisk/dataframe"
)

// PvDb reads price history from the eod table in PostgreSQL
type PvDb struct {
	useCache bool
}

// NewPvDb creates a new PostgreSQL data provider
func NewPvDb() *PvDb {
	return &PvDb{
		useCache: true,
	}
}

// NewPvDbNoCache creates a PostgreSQL data provider that bypasses the byte cache
func NewPvDbNoCache() *PvDb {
	return &PvDb{}
}

type cachedPanel struct {
	Dates    []time.Time `json:"dates"`
	ColNames []string    `json:"colNames"`
	Vals     [][]float64 `json:"vals"`
}

// AdjustedClose implements Provider over the eod table
func (p *PvDb) AdjustedClose(ctx context.Context, tickers []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	subLog := log.With().Strs("Tickers", tickers).Time("Begin", begin).Time("End", end).Logger()

	if end.Before(begin) {
		return nil, ErrBeginAfterEnd
	}

	cacheKey := eodCacheKey(tickers, begin, end)
	if p.useCache {
		if raw, err := common.CacheGet(cacheKey); err == nil {
			var panel cachedPanel
			if err := json.Unmarshal(raw, &panel); err == nil {
				return &dataframe.DataFrame{
					Dates:    panel.Dates,
					ColNames: panel.ColNames,
					Vals:     panel.Vals,
				}, nil
			}
			subLog.Warn().Msg("could not decode cached panel; falling through to database")
		}
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get database transaction")
		return nil, err
	}

	rows, err := trx.Query(ctx,
		"SELECT event_date, ticker, adj_close FROM eod WHERE ticker = ANY($1) AND event_date BETWEEN $2 AND $3 ORDER BY event_date",
		tickers, begin, end)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query eod prices")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	dates := make(map[string][]time.Time, len(tickers))
	prices := make(map[string][]float64, len(tickers))

	for rows.Next() {
		var eventDate time.Time
		var ticker string
		var adjClose float64
		if err := rows.Scan(&eventDate, &ticker, &adjClose); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan database result")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		dates[ticker] = append(dates[ticker], eventDate)
		prices[ticker] = append(prices[ticker], adjClose)
	}

	// Next returning false can mean the connection died mid-stream; a
	// truncated panel must not be returned or cached
	if err := rows.Err(); err != nil {
		subLog.Error().Stack().Err(err).Msg("eod row stream ended with an error")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	dfMap := make(dataframe.DataFrameMap, len(tickers))
	for _, ticker := range tickers {
		if len(dates[ticker]) == 0 {
			return nil, fmt.Errorf("%w: %s has no rows in [%s, %s]", ErrInvalidRange,
				ticker, begin.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		dfMap[ticker] = &dataframe.DataFrame{
			Dates:    dates[ticker],
			ColNames: []string{ticker},
			Vals:     [][]float64{prices[ticker]},
		}
	}

	df := dfMap.DataFrame().SortByDate()

	if p.useCache {
		raw, err := json.Marshal(cachedPanel{
			Dates:    df.Dates,
			ColNames: df.ColNames,
			Vals:     df.Vals,
		})
		if err == nil {
			if err := common.CacheSet(cacheKey, raw); err != nil {
				subLog.Warn().Err(err).Msg("could not cache eod panel")
			}
		}
	}

	return df, nil
}

// LastPrice implements Provider over the eod table; the most recent adjusted
// close per ticker is used as a proxy for the last trade price
func (p *PvDb) LastPrice(ctx context.Context, tickers []string) (map[string]float64, error) {
	subLog := log.With().Strs("Tickers", tickers).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get database transaction")
		return nil, err
	}

	rows, err := trx.Query(ctx,
		"SELECT DISTINCT ON (ticker) ticker, adj_close FROM eod WHERE ticker = ANY($1) ORDER BY ticker, event_date DESC",
		tickers)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query last prices")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	res := make(map[string]float64, len(tickers))
	for rows.Next() {
		var ticker string
		var adjClose float64
		if err := rows.Scan(&ticker, &adjClose); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan database result")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		res[ticker] = adjClose
	}

	if err := rows.Err(); err != nil {
		subLog.Error().Stack().Err(err).Msg("last price row stream ended with an error")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	for _, ticker := range tickers {
		if _, ok := res[ticker]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
		}
	}

	return res, nil
}

// StorePrices upserts adjusted close prices for a ticker into the eod table
func (p *PvDb) StorePrices(ctx context.Context, ticker string, prices *dataframe.DataFrame) error {
	subLog := log.With().Str("Ticker", ticker).Int("NumRows", prices.Len()).Logger()

	if _, err := prices.Col(ticker); err != nil {
		return err
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get database transaction")
		return err
	}

	priceMap := prices.AsMap(ticker)

	var tag pgconn.CommandTag
	for _, eventDate := range prices.Dates {
		tag, err = trx.Exec(ctx,
			"INSERT INTO eod (ticker, event_date, adj_close) VALUES ($1, $2, $3) ON CONFLICT (ticker, event_date) DO UPDATE SET adj_close = EXCLUDED.adj_close",
			ticker, eventDate, priceMap[eventDate])
		if err != nil {
			subLog.Error().Stack().Err(err).Time("EventDate", eventDate).Msg("could not store price")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return err
		}
		if tag.RowsAffected() != 1 {
			subLog.Warn().Time("EventDate", eventDate).Int64("RowsAffected", tag.RowsAffected()).Msg("unexpected number of rows affected")
		}
	}

	return trx.Commit(ctx)
}

func eodCacheKey(tickers []string, begin, end time.Time) string {
	return fmt.Sprintf("eod:%s:%d:%d", strings.Join(tickers, ","), begin.Unix(), end.Unix())
}
