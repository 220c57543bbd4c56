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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quantlab/portrisk/dataframe"
)

var _ = Describe("DataFrame math", func() {
	var (
		df  *dataframe.DataFrame
		err error
	)

	BeforeEach(func() {
		dates := []time.Time{
			time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC),
		}
		df, err = dataframe.New(dates, []string{"AAPL", "MSFT"}, [][]float64{
			{100, 102, 101},
			{50, 51, 52},
		})
		Expect(err).To(BeNil())
	})

	Describe("when combining frames", func() {
		It("should divide matching columns", func() {
			res := df.Div(df.Lag(1))
			Expect(math.IsNaN(res.Vals[0][0])).To(BeTrue())
			Expect(res.Vals[0][1]).To(BeNumerically("~", 1.02, 1e-12))
			Expect(res.Vals[1][2]).To(BeNumerically("~", 52.0/51.0, 1e-12))
		})

		It("should add a scalar to every cell", func() {
			res := df.AddScalar(-1)
			Expect(res.Vals[0]).To(Equal([]float64{99, 101, 100}))
			Expect(res.Vals[1]).To(Equal([]float64{49, 50, 51}))
		})

		It("should multiply matching columns", func() {
			res := df.Mul(df)
			Expect(res.Vals[0][0]).To(Equal(10000.0))
			Expect(res.Vals[1][2]).To(Equal(2704.0))
		})

		It("should multiply every cell by a scalar", func() {
			res := df.MulScalar(2)
			Expect(res.Vals[0]).To(Equal([]float64{200, 204, 202}))
			Expect(res.Vals[1]).To(Equal([]float64{100, 102, 104}))

			// original untouched
			Expect(df.Vals[0]).To(Equal([]float64{100, 102, 101}))
		})

		It("should subtract a per-column scalar", func() {
			res := df.SubScalarVec(map[string]float64{"AAPL": 100, "MSFT": 50})
			Expect(res.Vals[0]).To(Equal([]float64{0, 2, 1}))
			Expect(res.Vals[1]).To(Equal([]float64{0, 1, 2}))
		})

		It("should leave columns without a scalar entry unchanged", func() {
			res := df.SubScalarVec(map[string]float64{"AAPL": 100})
			Expect(res.Vals[1]).To(Equal([]float64{50, 51, 52}))
		})

		It("should divide every column by a row vector", func() {
			res := df.DivVec([]float64{150, 153, 153})
			Expect(res.Vals[0][0]).To(BeNumerically("~", 100.0/150.0, 1e-12))
			Expect(res.Vals[1][2]).To(BeNumerically("~", 52.0/153.0, 1e-12))
		})
	})

	Describe("when reducing rows", func() {
		It("should sum across columns per row", func() {
			Expect(df.RowSum()).To(Equal([]float64{150, 153, 153}))
		})
	})

	Describe("when computing column statistics", func() {
		It("should compute column means", func() {
			means := df.ColMean()
			Expect(means["AAPL"]).To(BeNumerically("~", 101, 1e-12))
			Expect(means["MSFT"]).To(BeNumerically("~", 51, 1e-12))
		})

		It("should skip NaN entries in the mean", func() {
			df.Vals[0][0] = math.NaN()
			means := df.ColMean()
			Expect(means["AAPL"]).To(BeNumerically("~", 101.5, 1e-12))
		})

		It("should compute the sample standard deviation", func() {
			stdevs := df.ColStdDev()
			Expect(stdevs["AAPL"]).To(BeNumerically("~", 1, 1e-12))
			Expect(stdevs["MSFT"]).To(BeNumerically("~", 1, 1e-12))
		})

		It("should report NaN for columns with fewer than 2 valid entries", func() {
			df.Vals[0][0] = math.NaN()
			df.Vals[0][1] = math.NaN()
			stdevs := df.ColStdDev()
			Expect(math.IsNaN(stdevs["AAPL"])).To(BeTrue())
		})
	})

	Describe("when converting to a matrix", func() {
		It("should produce a rows x columns dense matrix", func() {
			m := df.Matrix()
			rows, cols := m.Dims()
			Expect(rows).To(Equal(3))
			Expect(cols).To(Equal(2))
			Expect(m.At(1, 0)).To(Equal(102.0))
			Expect(m.At(2, 1)).To(Equal(52.0))
		})
	})
})
