package rating_test

import (
	"math"
	"testing"

	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExpectedScore(t *testing.T) {
	Convey("Given the logistic expectation", t, func() {
		Convey("When both ratings are equal", func() {
			Convey("Then the expectation is one half", func() {
				So(rating.ExpectedScore(1500, 1500), ShouldAlmostEqual, 0.5, 1e-12)
			})
		})

		Convey("When one side is 400 points stronger", func() {
			Convey("Then it is expected to win ten times as often", func() {
				e := rating.ExpectedScore(1900, 1500)
				So(e, ShouldAlmostEqual, 10.0/11.0, 1e-12)
			})
		})

		Convey("When checked over a spread of rating pairs", func() {
			pairs := [][2]float64{
				{1500, 1500}, {1600, 1400}, {1234.5, 2100.25},
				{800, 2400}, {1500.001, 1499.999},
			}

			Convey("Then expectations are symmetric", func() {
				for _, p := range pairs {
					sum := rating.ExpectedScore(p[0], p[1]) + rating.ExpectedScore(p[1], p[0])
					So(sum, ShouldAlmostEqual, 1.0, 1e-9)
				}
			})

			Convey("And expectations stay strictly inside (0,1)", func() {
				for _, p := range pairs {
					e := rating.ExpectedScore(p[0], p[1])
					So(e, ShouldBeGreaterThan, 0)
					So(e, ShouldBeLessThan, 1)
				}
			})
		})
	})
}

func TestEffectiveK(t *testing.T) {
	Convey("Given decay settings baseK=24 halfLife=200 minK=8", t, func() {
		h := rating.Heuristics{
			Decay: rating.Decay{Enabled: true, HalfLife: 200, MinK: 8},
		}

		Convey("When a player has 200 matches", func() {
			Convey("Then K has halved to 12", func() {
				So(rating.EffectiveK(24, 200, h), ShouldAlmostEqual, 12.0, 1e-12)
			})
		})

		Convey("When a player has 4600 matches", func() {
			Convey("Then K is clamped to the floor", func() {
				So(rating.EffectiveK(24, 4600, h), ShouldAlmostEqual, 8.0, 1e-12)
			})
		})

		Convey("When a player has no matches", func() {
			Convey("Then K is the base value", func() {
				So(rating.EffectiveK(24, 0, h), ShouldAlmostEqual, 24.0, 1e-12)
			})
		})
	})

	Convey("Given both provisional and decay enabled", t, func() {
		h := rating.Heuristics{
			Provisional: rating.Provisional{Enabled: true, Matches: 10, Multiplier: 2.0},
			Decay:       rating.Decay{Enabled: true, HalfLife: 200, MinK: 8},
		}

		Convey("When the player is still provisional", func() {
			Convey("Then the provisional multiplier wins regardless of decay", func() {
				So(rating.EffectiveK(24, 0, h), ShouldAlmostEqual, 48.0, 1e-12)
				So(rating.EffectiveK(24, 9, h), ShouldAlmostEqual, 48.0, 1e-12)
			})
		})

		Convey("When the provisional phase has ended", func() {
			Convey("Then decay applies", func() {
				So(rating.EffectiveK(24, 200, h), ShouldAlmostEqual, 12.0, 1e-12)
			})
		})
	})

	Convey("Given no heuristics", t, func() {
		Convey("Then K passes through untouched", func() {
			So(rating.EffectiveK(24, 5000, rating.Heuristics{}), ShouldAlmostEqual, 24.0, 1e-12)
		})
	})
}

func TestUpdateRatings(t *testing.T) {
	Convey("Given two equally rated players and heuristics disabled", t, func() {
		var h rating.Heuristics

		Convey("When the first player wins with K=24", func() {
			a, b := rating.UpdateRatings(1500, 1500, 0, 0, model.FirstWins, 24, h)

			Convey("Then the winner gains and the loser loses 12 points", func() {
				So(a, ShouldAlmostEqual, 1512.0, 1e-9)
				So(b, ShouldAlmostEqual, 1488.0, 1e-9)
			})
		})

		Convey("When the match is a draw", func() {
			a, b := rating.UpdateRatings(1500, 1500, 0, 0, model.Draw, 24, h)

			Convey("Then neither rating moves", func() {
				So(a, ShouldAlmostEqual, 1500.0, 1e-9)
				So(b, ShouldAlmostEqual, 1500.0, 1e-9)
			})
		})
	})

	Convey("Given unequal ratings and heuristics disabled", t, func() {
		var h rating.Heuristics
		cases := []struct {
			ra, rb float64
			out    model.Outcome
		}{
			{1600, 1400, model.FirstWins},
			{1600, 1400, model.SecondWins},
			{1600, 1400, model.Draw},
			{1350.5, 1812.25, model.FirstWins},
		}

		Convey("Then every outcome is zero-sum", func() {
			for _, c := range cases {
				na, nb := rating.UpdateRatings(c.ra, c.rb, 7, 31, c.out, 24, h)
				So(na+nb, ShouldAlmostEqual, c.ra+c.rb, 1e-9)
			}
		})
	})

	Convey("Given the upset boost is enabled", t, func() {
		h := rating.Heuristics{
			UpsetBoost: rating.Boost{Enabled: true, Threshold: 100, Multiplier: 1.5},
		}

		Convey("When the lower-rated side wins across a big enough gap", func() {
			a, b := rating.UpdateRatings(1400, 1600, 0, 0, model.FirstWins, 24, h)
			plainA, plainB := rating.UpdateRatings(1400, 1600, 0, 0, model.FirstWins, 24, rating.Heuristics{})

			Convey("Then both deltas are amplified by the multiplier", func() {
				So(a-1400, ShouldAlmostEqual, (plainA-1400)*1.5, 1e-9)
				So(b-1600, ShouldAlmostEqual, (plainB-1600)*1.5, 1e-9)
			})

			Convey("And the update stays zero-sum since both sides share one multiplier", func() {
				So(a+b, ShouldAlmostEqual, 3000.0, 1e-9)
			})
		})

		Convey("When the favorite wins", func() {
			a, b := rating.UpdateRatings(1400, 1600, 0, 0, model.SecondWins, 24, h)
			plainA, plainB := rating.UpdateRatings(1400, 1600, 0, 0, model.SecondWins, 24, rating.Heuristics{})

			Convey("Then no boost applies", func() {
				So(a, ShouldAlmostEqual, plainA, 1e-9)
				So(b, ShouldAlmostEqual, plainB, 1e-9)
			})
		})

		Convey("When the gap is below the threshold", func() {
			a, b := rating.UpdateRatings(1500, 1550, 0, 0, model.FirstWins, 24, h)
			plainA, plainB := rating.UpdateRatings(1500, 1550, 0, 0, model.FirstWins, 24, rating.Heuristics{})

			Convey("Then no boost applies", func() {
				So(a, ShouldAlmostEqual, plainA, 1e-9)
				So(b, ShouldAlmostEqual, plainB, 1e-9)
			})
		})
	})

	Convey("Given the draw-gap boost is enabled", t, func() {
		h := rating.Heuristics{
			DrawGapBoost: rating.Boost{Enabled: true, Threshold: 150, Multiplier: 2.0},
		}

		Convey("When far-apart players draw", func() {
			a, b := rating.UpdateRatings(1400, 1700, 0, 0, model.Draw, 24, h)
			plainA, plainB := rating.UpdateRatings(1400, 1700, 0, 0, model.Draw, 24, rating.Heuristics{})

			Convey("Then the convergence toward each other is doubled", func() {
				So(a-1400, ShouldAlmostEqual, (plainA-1400)*2.0, 1e-9)
				So(b-1700, ShouldAlmostEqual, (plainB-1700)*2.0, 1e-9)
			})
		})

		Convey("When close players draw", func() {
			a, b := rating.UpdateRatings(1500, 1520, 3, 3, model.Draw, 24, h)
			plainA, plainB := rating.UpdateRatings(1500, 1520, 3, 3, model.Draw, 24, rating.Heuristics{})

			Convey("Then no boost applies", func() {
				So(a, ShouldAlmostEqual, plainA, 1e-9)
				So(b, ShouldAlmostEqual, plainB, 1e-9)
			})
		})
	})

	Convey("Given both upset and draw-gap boosts are enabled", t, func() {
		h := rating.Heuristics{
			UpsetBoost:   rating.Boost{Enabled: true, Threshold: 100, Multiplier: 1.5},
			DrawGapBoost: rating.Boost{Enabled: true, Threshold: 100, Multiplier: 2.0},
		}

		Convey("When an upset win also clears the draw-gap threshold", func() {
			a, b := rating.UpdateRatings(1400, 1600, 0, 0, model.FirstWins, 24, h)
			plainA, _ := rating.UpdateRatings(1400, 1600, 0, 0, model.FirstWins, 24, rating.Heuristics{})

			Convey("Then only the upset boost fires", func() {
				So(a-1400, ShouldAlmostEqual, (plainA-1400)*1.5, 1e-9)
				So(b, ShouldNotAlmostEqual, 1600.0, 1e-9)
			})
		})
	})

	Convey("Given players in different K phases", t, func() {
		h := rating.Heuristics{
			Provisional: rating.Provisional{Enabled: true, Matches: 10, Multiplier: 2.0},
		}

		Convey("When a provisional player beats a settled one", func() {
			a, b := rating.UpdateRatings(1500, 1500, 0, 50, model.FirstWins, 24, h)

			Convey("Then the rating sum drifts because the K factors differ", func() {
				So(a-1500, ShouldAlmostEqual, 24.0, 1e-9)  // 48 * 0.5
				So(1500-b, ShouldAlmostEqual, 12.0, 1e-9)  // 24 * 0.5
				So(math.Abs((a+b)-3000.0), ShouldBeGreaterThan, 1.0)
			})
		})
	})
}
