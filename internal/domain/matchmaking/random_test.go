package matchmaking_test

import (
	"math/rand"
	"testing"

	"github.com/okian/duelo/internal/domain/matchmaking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeightedChoice(t *testing.T) {
	Convey("Given a cumulative-weight draw", t, func() {
		Convey("When all weights are non-positive", func() {
			rng := rand.New(rand.NewSource(1))
			So(matchmaking.WeightedChoice([]float64{0, -1, 0}, rng), ShouldEqual, -1)
		})

		Convey("When one weight dominates completely", func() {
			rng := rand.New(rand.NewSource(1))
			weights := []float64{0, 1, 0}

			Convey("Then it is always chosen", func() {
				for i := 0; i < 50; i++ {
					So(matchmaking.WeightedChoice(weights, rng), ShouldEqual, 1)
				}
			})
		})

		Convey("When weights are skewed", func() {
			rng := rand.New(rand.NewSource(42))
			weights := []float64{9, 1}
			counts := make([]int, 2)
			for i := 0; i < 10000; i++ {
				counts[matchmaking.WeightedChoice(weights, rng)]++
			}

			Convey("Then the draw frequency follows the weights", func() {
				So(counts[0], ShouldBeGreaterThan, 8500)
				So(counts[1], ShouldBeGreaterThan, 500)
			})
		})

		Convey("When run twice with the same seed", func() {
			weights := []float64{1, 2, 3, 4}
			a := make([]int, 100)
			b := make([]int, 100)
			rngA := rand.New(rand.NewSource(7))
			rngB := rand.New(rand.NewSource(7))
			for i := range a {
				a[i] = matchmaking.WeightedChoice(weights, rngA)
				b[i] = matchmaking.WeightedChoice(weights, rngB)
			}

			Convey("Then the draws are identical", func() {
				So(a, ShouldResemble, b)
			})
		})
	})
}

func TestReservoirSample(t *testing.T) {
	Convey("Given reservoir sampling over [0,n)", t, func() {
		Convey("When k exceeds n", func() {
			rng := rand.New(rand.NewSource(3))
			sample := matchmaking.ReservoirSample(4, 10, rng)

			Convey("Then every index is returned once", func() {
				So(sample, ShouldHaveLength, 4)
				seen := map[int]bool{}
				for _, idx := range sample {
					seen[idx] = true
				}
				So(seen, ShouldHaveLength, 4)
			})
		})

		Convey("When k is zero or n is zero", func() {
			rng := rand.New(rand.NewSource(3))
			So(matchmaking.ReservoirSample(10, 0, rng), ShouldBeNil)
			So(matchmaking.ReservoirSample(0, 5, rng), ShouldBeNil)
		})

		Convey("When sampling 3 of 100", func() {
			rng := rand.New(rand.NewSource(9))
			sample := matchmaking.ReservoirSample(100, 3, rng)

			Convey("Then the sample holds 3 distinct in-range indices", func() {
				So(sample, ShouldHaveLength, 3)
				seen := map[int]bool{}
				for _, idx := range sample {
					So(idx, ShouldBeBetweenOrEqual, 0, 99)
					seen[idx] = true
				}
				So(seen, ShouldHaveLength, 3)
			})
		})

		Convey("When every index gets many chances", func() {
			hits := make([]int, 10)
			for seed := int64(0); seed < 2000; seed++ {
				rng := rand.New(rand.NewSource(seed))
				for _, idx := range matchmaking.ReservoirSample(10, 3, rng) {
					hits[idx]++
				}
			}

			Convey("Then no index is starved", func() {
				for _, h := range hits {
					So(h, ShouldBeGreaterThan, 400)
				}
			})
		})
	})
}
