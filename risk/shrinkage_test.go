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

package risk_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantlab/portrisk/dataframe"
	"github.com/quantlab/portrisk/risk"
)

var _ = Describe("ShrunkCovariance", func() {
	var (
		pair  *dataframe.DataFrame
		panel *dataframe.DataFrame
		d     func(day int) time.Time
		err   error
	)

	BeforeEach(func() {
		d = func(day int) time.Time {
			return time.Date(2021, 1, day, 0, 0, 0, 0, time.UTC)
		}

		pair, err = dataframe.New(
			[]time.Time{d(1), d(2), d(3)},
			[]string{"AAPL", "MSFT"},
			[][]float64{
				{0.01, 0.02, -0.01},
				{0.02, 0.01, 0.03},
			})
		Expect(err).To(BeNil())

		panel, err = dataframe.New(
			[]time.Time{d(1), d(2), d(3), d(4), d(5)},
			[]string{"AAPL", "MSFT", "XOM"},
			[][]float64{
				{0.01, 0.03, -0.02, 0.005, 0.015},
				{0.02, -0.01, 0.01, 0.03, -0.005},
				{-0.015, 0.025, 0.0, 0.01, -0.02},
			})
		Expect(err).To(BeNil())
	})

	Describe("with a fixed shrinkage intensity", func() {
		It("should return the sample covariance (T divisor) for intensity 0", func() {
			cov, shrinkage, err := risk.ShrunkCovariance(pair, 0)
			Expect(err).To(BeNil())
			Expect(shrinkage).To(Equal(0.0))

			v, err := cov.At("AAPL", "AAPL")
			Expect(err).To(BeNil())
			Expect(v).To(BeNumerically("~", 1.5555555556e-4, 1e-12))

			v, err = cov.At("MSFT", "MSFT")
			Expect(err).To(BeNil())
			Expect(v).To(BeNumerically("~", 6.6666666667e-5, 1e-12))

			v, err = cov.At("AAPL", "MSFT")
			Expect(err).To(BeNil())
			Expect(v).To(BeNumerically("~", -1e-4, 1e-12))
		})

		It("should differ from SampleCovariance by the Bessel factor", func() {
			shrunk, _, err := risk.ShrunkCovariance(pair, 0)
			Expect(err).To(BeNil())
			sample, err := risk.SampleCovariance(pair)
			Expect(err).To(BeNil())

			a, err := shrunk.At("AAPL", "AAPL")
			Expect(err).To(BeNil())
			b, err := sample.At("AAPL", "AAPL")
			Expect(err).To(BeNil())

			// divisor T vs T-1 on a 3-row panel
			Expect(a * 3 / 2).To(BeNumerically("~", b, 1e-12))
		})

		It("should return the constant correlation prior for intensity 1", func() {
			cov, shrinkage, err := risk.ShrunkCovariance(panel, 1)
			Expect(err).To(BeNil())
			Expect(shrinkage).To(Equal(1.0))

			sample, _, err := risk.ShrunkCovariance(panel, 0)
			Expect(err).To(BeNil())

			// prior keeps the sample variances on the diagonal
			for _, ticker := range cov.Tickers() {
				v, err := cov.At(ticker, ticker)
				Expect(err).To(BeNil())
				s, err := sample.At(ticker, ticker)
				Expect(err).To(BeNil())
				Expect(v).To(BeNumerically("~", s, 1e-12))
			}

			// every pairwise correlation equals the same constant
			correlation := func(cov *risk.Matrix, a, b string) float64 {
				ab, err := cov.At(a, b)
				Expect(err).To(BeNil())
				aa, err := cov.At(a, a)
				Expect(err).To(BeNil())
				bb, err := cov.At(b, b)
				Expect(err).To(BeNil())
				return ab / math.Sqrt(aa*bb)
			}

			c1 := correlation(cov, "AAPL", "MSFT")
			c2 := correlation(cov, "AAPL", "XOM")
			c3 := correlation(cov, "MSFT", "XOM")
			Expect(c1).To(BeNumerically("~", c2, 1e-12))
			Expect(c2).To(BeNumerically("~", c3, 1e-12))
		})

		It("should clamp intensities above 1", func() {
			a, shrinkage, err := risk.ShrunkCovariance(panel, 5)
			Expect(err).To(BeNil())
			Expect(shrinkage).To(Equal(1.0))

			b, _, err := risk.ShrunkCovariance(panel, 1)
			Expect(err).To(BeNil())

			v1, err := a.At("AAPL", "MSFT")
			Expect(err).To(BeNil())
			v2, err := b.At("AAPL", "MSFT")
			Expect(err).To(BeNil())
			Expect(v1).To(Equal(v2))
		})
	})

	Describe("with an estimated shrinkage intensity", func() {
		It("should report an intensity in [0, 1]", func() {
			_, shrinkage, err := risk.ShrunkCovariance(panel, risk.EstimateShrinkage)
			Expect(err).To(BeNil())
			Expect(shrinkage).To(BeNumerically(">=", 0))
			Expect(shrinkage).To(BeNumerically("<=", 1))
		})

		It("should keep the sample variances on the diagonal", func() {
			cov, _, err := risk.ShrunkCovariance(panel, risk.EstimateShrinkage)
			Expect(err).To(BeNil())
			sample, _, err := risk.ShrunkCovariance(panel, 0)
			Expect(err).To(BeNil())

			for _, ticker := range cov.Tickers() {
				v, err := cov.At(ticker, ticker)
				Expect(err).To(BeNil())
				s, err := sample.At(ticker, ticker)
				Expect(err).To(BeNil())
				Expect(v).To(BeNumerically("~", s, 1e-12))
			}
		})

		It("should report zero intensity when the prior equals the sample", func() {
			// with a single asset the prior is the sample variance itself, so
			// there is nothing to shrink toward
			single, err := dataframe.New(
				[]time.Time{d(1), d(2), d(3)},
				[]string{"AAPL"},
				[][]float64{{0.01, 0.02, -0.01}})
			Expect(err).To(BeNil())

			cov, shrinkage, covErr := risk.ShrunkCovariance(single, risk.EstimateShrinkage)
			Expect(covErr).To(BeNil())
			Expect(shrinkage).To(Equal(0.0))

			v, err := cov.At("AAPL", "AAPL")
			Expect(err).To(BeNil())
			Expect(v).To(BeNumerically("~", 1.5555555556e-4, 1e-12))
		})

		It("should leave a two asset panel essentially unshrunk", func() {
			// with two assets the constant correlation prior reproduces the
			// sample covariance up to rounding
			cov, _, err := risk.ShrunkCovariance(pair, risk.EstimateShrinkage)
			Expect(err).To(BeNil())

			v, err := cov.At("AAPL", "MSFT")
			Expect(err).To(BeNil())
			Expect(v).To(BeNumerically("~", -1e-4, 1e-10))
		})
	})

	Describe("with degenerate input", func() {
		It("should error when an asset has zero variance", func() {
			flat, err := dataframe.New(
				[]time.Time{d(1), d(2), d(3)},
				[]string{"AAPL", "CASH"},
				[][]float64{
					{0.01, 0.02, -0.01},
					{0.0, 0.0, 0.0},
				})
			Expect(err).To(BeNil())

			_, _, covErr := risk.ShrunkCovariance(flat, risk.EstimateShrinkage)
			Expect(covErr).To(MatchError(risk.ErrDegenerateCovariance))
		})

		It("should error when fewer than 2 complete rows remain", func() {
			short, err := dataframe.New(
				[]time.Time{d(1), d(2)},
				[]string{"AAPL", "MSFT"},
				[][]float64{
					{0.01, math.NaN()},
					{0.02, 0.01},
				})
			Expect(err).To(BeNil())

			_, _, covErr := risk.ShrunkCovariance(short, risk.EstimateShrinkage)
			Expect(covErr).To(MatchError(risk.ErrInsufficientData))
		})

		It("should reject a nil panel", func() {
			_, _, err := risk.ShrunkCovariance(nil, risk.EstimateShrinkage)
			Expect(err).To(MatchError(risk.ErrInvalidInput))
		})
	})
})
