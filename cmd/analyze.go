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

package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantlab/portrisk/common"
	"github.com/quantlab/portrisk/data"
	"github.com/quantlab/portrisk/database"
	"github.com/quantlab/portrisk/portfolio"
	"github.com/quantlab/portrisk/risk"
)

var (
	analyzeOffset     int
	analyzeShrink     float64
	analyzeSeed       int64
	analyzeJSON       bool
	analyzeLiveQuotes bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeOffset, "offset", 1, "return offset in periods")
	analyzeCmd.Flags().Float64Var(&analyzeShrink, "shrink", -1, "shrinkage intensity in [0, 1]; -1 estimates it from the data")
	analyzeCmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "random seed for the alpha signal noise; 0 seeds from the clock")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit results as JSON instead of tables")
	analyzeCmd.Flags().BoolVar(&analyzeLiveQuotes, "live-quotes", false, "fetch last trade prices from the quote service instead of the EOD store")
}

// positionDef is a single [[positions]] entry in a portfolio definition file
type positionDef struct {
	Ticker         string    `toml:"ticker"`
	Shares         float64   `toml:"shares"`
	ExpectedReturn float64   `toml:"expected_return"`
	Start          time.Time `toml:"start"`
	End            time.Time `toml:"end"`
}

// portfolioDef is the top-level structure of a portfolio definition file
type portfolioDef struct {
	Frequency string             `toml:"frequency"`
	Begin     time.Time          `toml:"begin"`
	End       time.Time          `toml:"end"`
	Positions []positionDef      `toml:"positions"`
	Benchmark map[string]float64 `toml:"benchmark"`
}

type analyzeResult struct {
	RunID                 string             `json:"runId"`
	Weights               map[string]float64 `json:"weights"`
	ActiveWeights         map[string]float64 `json:"activeWeights"`
	HoldingPeriodReturn   float64            `json:"holdingPeriodReturn"`
	InformationRatio      float64            `json:"informationRatio"`
	Shrinkage             float64            `json:"shrinkage"`
	PortfolioVariance     float64            `json:"portfolioVariance"`
	BenchmarkVariance     float64            `json:"benchmarkVariance"`
	TrackingErrorVariance float64            `json:"trackingErrorVariance"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <portfolio.toml>",
	Short: "compute risk and return statistics for a portfolio definition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		common.SetupLogging()

		runID := uuid.New().String()
		subLog := log.With().Str("RunID", runID).Str("Definition", args[0]).Logger()

		if err := database.Connect(ctx); err != nil {
			subLog.Fatal().Err(err).Msg("database connection failed")
		}

		port, err := loadPortfolio(args[0])
		if err != nil {
			subLog.Fatal().Err(err).Msg("could not load portfolio definition")
		}

		res, err := analyze(ctx, port)
		if err != nil {
			subLog.Fatal().Err(err).Msg("analysis failed")
		}
		res.RunID = runID

		if analyzeJSON {
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				subLog.Fatal().Err(err).Msg("could not marshal results")
			}
			fmt.Println(string(out))
			return
		}

		printResult(res)
	},
}

func loadPortfolio(fn string) (*portfolio.Portfolio, error) {
	raw, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	var def portfolioDef
	if err := toml.Unmarshal(raw, &def); err != nil {
		return nil, err
	}

	freq, err := data.ParseFrequency(def.Frequency)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, len(def.Positions))
	for idx, pos := range def.Positions {
		tickers[idx] = pos.Ticker
	}
	common.ArrToUpper(tickers)

	positions := make([]portfolio.Position, 0, len(def.Positions))
	for idx, pos := range def.Positions {
		positions = append(positions, portfolio.Position{
			Ticker:         tickers[idx],
			Shares:         pos.Shares,
			ExpectedReturn: pos.ExpectedReturn,
			HoldingStart:   pos.Start,
			HoldingEnd:     pos.End,
		})
	}

	var provider data.Provider = data.NewPvDb()
	if analyzeLiveQuotes {
		provider = data.WithLiveQuotes(provider, data.NewQuoteClient())
	}

	return portfolio.New(portfolio.Config{
		Positions: positions,
		Benchmark: def.Benchmark,
		Frequency: freq,
		Begin:     def.Begin,
		End:       def.End,
	}, provider)
}

func analyze(ctx context.Context, port *portfolio.Portfolio) (*analyzeResult, error) {
	weights, err := port.Weights(ctx)
	if err != nil {
		return nil, err
	}

	active, err := port.ActiveWeights(ctx)
	if err != nil {
		return nil, err
	}

	hpr, err := port.HoldingPeriodReturn(ctx)
	if err != nil {
		return nil, err
	}

	ir, err := port.InformationRatio(ctx)
	if err != nil {
		return nil, err
	}

	returns, err := port.HistoricReturns(ctx, analyzeOffset)
	if err != nil {
		return nil, err
	}

	shrink := risk.EstimateShrinkage
	if analyzeShrink >= 0 {
		shrink = analyzeShrink
	}
	cov, shrinkage, err := risk.ShrunkCovariance(returns, shrink)
	if err != nil {
		return nil, err
	}

	portVar, err := port.PortfolioVariance(ctx, cov)
	if err != nil {
		return nil, err
	}

	benchVar, err := port.BenchmarkVariance(cov)
	if err != nil {
		return nil, err
	}

	tev, err := port.TrackingErrorVariance(ctx, cov)
	if err != nil {
		return nil, err
	}

	seed := analyzeSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	alpha, err := port.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	if !analyzeJSON {
		fmt.Println("Covariance:")
		fmt.Println(cov.Table())
		fmt.Println("Expected excess stock returns:")
		fmt.Println(alpha.Table())
	}

	return &analyzeResult{
		Weights:               weights,
		ActiveWeights:         active,
		HoldingPeriodReturn:   hpr,
		InformationRatio:      ir,
		Shrinkage:             shrinkage,
		PortfolioVariance:     portVar,
		BenchmarkVariance:     benchVar,
		TrackingErrorVariance: tev,
	}, nil
}

func printResult(res *analyzeResult) {
	fmt.Printf("Run ID:                  %s\n", res.RunID)
	fmt.Printf("Holding period return:   %.4f\n", res.HoldingPeriodReturn)
	fmt.Printf("Information ratio:       %.4f\n", res.InformationRatio)
	fmt.Printf("Shrinkage intensity:     %.4f\n", res.Shrinkage)
	fmt.Printf("Portfolio variance:      %.6g\n", res.PortfolioVariance)
	fmt.Printf("Benchmark variance:      %.6g\n", res.BenchmarkVariance)
	fmt.Printf("Tracking error variance: %.6g\n", res.TrackingErrorVariance)
	fmt.Println("\nWeights:")
	for ticker, w := range res.Weights {
		fmt.Printf("  %-8s %8.4f\n", ticker, w)
	}
	fmt.Println("\nActive weights:")
	for ticker, w := range res.ActiveWeights {
		fmt.Printf("  %-8s %8.4f\n", ticker, w)
	}
}
