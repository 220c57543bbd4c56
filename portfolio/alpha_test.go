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

package portfolio_test

import (
	"context"
	"math"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantlab/portrisk/data"
	"github.com/quantlab/portrisk/portfolio"
)

var _ = Describe("ExpectedExcessStockReturns", func() {
	var (
		port *portfolio.Portfolio
		ctx  context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		d := func(day int) time.Time {
			return time.Date(2021, 1, day, 0, 0, 0, 0, time.UTC)
		}

		provider := data.NewInMemory()
		dates := []time.Time{d(1), d(2), d(3), d(4), d(5), d(6)}
		Expect(provider.AddPrices("AAPL", dates, []float64{100, 102, 101, 103, 105, 104})).To(Succeed())
		Expect(provider.AddPrices("MSFT", dates, []float64{50, 51, 52, 53, 52, 54})).To(Succeed())

		var err error
		port, err = portfolio.New(portfolio.Config{
			Positions: []portfolio.Position{
				{Ticker: "AAPL", Shares: 10},
				{Ticker: "MSFT", Shares: 5},
			},
			Benchmark: map[string]float64{"AAPL": 0.5, "MSFT": 0.5},
			Frequency: data.FrequencyDaily,
			Begin:     dates[0],
			End:       dates[5],
		}, provider)
		Expect(err).To(BeNil())
	})

	It("should produce one alpha column per position", func() {
		alpha, err := port.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(42)))
		Expect(err).To(BeNil())
		Expect(alpha.ColNames).To(Equal([]string{"AAPL", "MSFT"}))
	})

	It("should drop rows where the signal is undefined", func() {
		alpha, err := port.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(42)))
		Expect(err).To(BeNil())

		// the first return row has no prior price and is dropped
		Expect(alpha.Len()).To(Equal(5))
		for _, col := range alpha.Vals {
			for _, v := range col {
				Expect(math.IsNaN(v)).To(BeFalse())
			}
		}
	})

	It("should z-score each column before scaling", func() {
		alpha, err := port.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(42)))
		Expect(err).To(BeNil())

		// scores are centered per column, so each alpha column sums to ~0
		for _, col := range alpha.Vals {
			total := 0.0
			for _, v := range col {
				total += v
			}
			Expect(total).To(BeNumerically("~", 0, 1e-12))
		}
	})

	It("should be reproducible with the same seed", func() {
		a, err := port.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(42)))
		Expect(err).To(BeNil())
		b, err := port.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(42)))
		Expect(err).To(BeNil())

		for colIdx := range a.Vals {
			Expect(a.Vals[colIdx]).To(Equal(b.Vals[colIdx]))
		}
	})

	It("should differ across seeds", func() {
		a, err := port.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(42)))
		Expect(err).To(BeNil())
		b, err := port.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(43)))
		Expect(err).To(BeNil())

		Expect(a.Vals[0]).ToNot(Equal(b.Vals[0]))
	})

	It("should error for a portfolio with no positions", func() {
		empty, err := portfolio.New(portfolio.Config{
			Benchmark: map[string]float64{"AAPL": 1.0},
			Frequency: data.FrequencyDaily,
		}, data.NewInMemory())
		Expect(err).To(BeNil())

		_, err = empty.ExpectedExcessStockReturns(ctx, rand.New(rand.NewSource(42)))
		Expect(err).To(MatchError(portfolio.ErrInsufficientPositions))
	})
})
