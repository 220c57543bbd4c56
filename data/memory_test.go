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

package data_test

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantlab/portrisk/data"
)

var _ = Describe("InMemory", func() {
	var (
		provider *data.InMemory
		ctx      context.Context
		d        func(day int) time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		d = func(day int) time.Time {
			return time.Date(2021, 1, day, 0, 0, 0, 0, time.UTC)
		}

		provider = data.NewInMemory()
		Expect(provider.AddPrices("AAPL",
			[]time.Time{d(1), d(2), d(3)},
			[]float64{100, 102, 101})).To(Succeed())
		Expect(provider.AddPrices("MSFT",
			[]time.Time{d(2), d(3), d(4)},
			[]float64{51, 52, 53})).To(Succeed())
	})

	Describe("when fetching adjusted close prices", func() {
		It("should union join tickers on date", func() {
			df, err := provider.AdjustedClose(ctx, []string{"AAPL", "MSFT"}, d(1), d(4))
			Expect(err).To(BeNil())
			Expect(df.ColNames).To(Equal([]string{"AAPL", "MSFT"}))
			Expect(df.Len()).To(Equal(4))
			Expect(math.IsNaN(df.Vals[1][0])).To(BeTrue())
			Expect(math.IsNaN(df.Vals[0][3])).To(BeTrue())
		})

		It("should trim to the requested range", func() {
			df, err := provider.AdjustedClose(ctx, []string{"AAPL"}, d(2), d(3))
			Expect(err).To(BeNil())
			Expect(df.Dates).To(Equal([]time.Time{d(2), d(3)}))
			Expect(df.Vals[0]).To(Equal([]float64{102, 101}))
		})

		It("should sort prices registered out of order", func() {
			Expect(provider.AddPrices("TSLA",
				[]time.Time{d(3), d(1), d(2)},
				[]float64{210, 200, 205})).To(Succeed())

			df, err := provider.AdjustedClose(ctx, []string{"TSLA"}, d(1), d(3))
			Expect(err).To(BeNil())
			Expect(df.Vals[0]).To(Equal([]float64{200, 205, 210}))
		})

		It("should error when begin is after end", func() {
			_, err := provider.AdjustedClose(ctx, []string{"AAPL"}, d(3), d(1))
			Expect(err).To(MatchError(data.ErrBeginAfterEnd))
		})

		It("should error for an unknown ticker", func() {
			_, err := provider.AdjustedClose(ctx, []string{"TSLA"}, d(1), d(3))
			Expect(err).To(MatchError(data.ErrNotFound))
		})

		It("should error when a ticker has no rows in the range", func() {
			_, err := provider.AdjustedClose(ctx, []string{"AAPL"}, d(10), d(20))
			Expect(err).To(MatchError(data.ErrInvalidRange))
		})
	})

	Describe("when fetching last prices", func() {
		It("should return the most recent price per ticker", func() {
			prices, err := provider.LastPrice(ctx, []string{"AAPL", "MSFT"})
			Expect(err).To(BeNil())
			Expect(prices["AAPL"]).To(Equal(101.0))
			Expect(prices["MSFT"]).To(Equal(53.0))
		})

		It("should error for an unknown ticker", func() {
			_, err := provider.LastPrice(ctx, []string{"TSLA"})
			Expect(err).To(MatchError(data.ErrNotFound))
		})
	})
})

var _ = Describe("Frequency", func() {
	It("should map frequencies to periods per year", func() {
		Expect(data.FrequencyAnnually.PeriodsPerYear()).To(Equal(1.0))
		Expect(data.FrequencyMonthly.PeriodsPerYear()).To(Equal(12.0))
		Expect(data.FrequencyWeekly.PeriodsPerYear()).To(Equal(52.0))
		Expect(data.FrequencyDaily.PeriodsPerYear()).To(Equal(252.0))
	})

	It("should error for an unknown frequency", func() {
		_, err := data.Frequency("Hourly").PeriodsPerYear()
		Expect(err).To(MatchError(data.ErrUnsupportedFrequency))
	})

	It("should parse single letter codes", func() {
		Expect(data.ParseFrequency("m")).To(Equal(data.FrequencyMonthly))
		Expect(data.ParseFrequency("d")).To(Equal(data.FrequencyDaily))
		Expect(data.ParseFrequency("w")).To(Equal(data.FrequencyWeekly))
		Expect(data.ParseFrequency("y")).To(Equal(data.FrequencyAnnually))
	})

	It("should reject unknown codes", func() {
		_, err := data.ParseFrequency("q")
		Expect(err).To(MatchError(data.ErrUnsupportedFrequency))
	})
})
