package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/duelo/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no environment overrides", t, func() {
		cfg, err := config.Load(ctx)

		Convey("Then loading yields the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.BaseK, ShouldEqual, 24.0)
			So(cfg.DataFile, ShouldEqual, "duelo.json")
		})
	})

	Convey("Given environment overrides", t, func() {
		t.Setenv("DUELO_BASE_K", "32")
		t.Setenv("DUELO_DATA_FILE", "/tmp/ratings.json")
		t.Setenv("DUELO_SAVE_DEBOUNCE_MS", "50")
		t.Setenv("DUELO_PROVISIONAL_ENABLED", "false")

		cfg, err := config.Load(ctx)

		Convey("Then env wins over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.BaseK, ShouldEqual, 32.0)
			So(cfg.DataFile, ShouldEqual, "/tmp/ratings.json")
			So(cfg.SaveDebounceMS, ShouldEqual, 50)
			So(cfg.ProvisionalEnabled, ShouldBeFalse)
		})
	})

	Convey("Given an invalid override", t, func() {
		Convey("When base_k is non-positive", func() {
			t.Setenv("DUELO_BASE_K", "0")
			_, err := config.Load(ctx)

			Convey("Then loading fails with the invalid-config sentinel", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the probe probability leaves [0,1]", func() {
			t.Setenv("DUELO_UPSET_PROBE_PROBABILITY", "1.5")
			_, err := config.Load(ctx)

			Convey("Then loading fails with the invalid-config sentinel", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
