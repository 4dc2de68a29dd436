package logger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/duelo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging through every level", func() {
			l := logger.Get()

			Convey("Then none of them panic", func() {
				So(func() {
					l.Debug(ctx, "debug", logger.String("k", "v"))
					l.Info(ctx, "info", logger.Int("n", 3), logger.Float64("f", 1.5))
					l.Warn(ctx, "warn", logger.Bool("b", true))
					l.Error(ctx, "error", logger.Error(errors.New("boom")))
				}, ShouldNotPanic)
			})
		})

		Convey("When deriving a named logger", func() {
			named := logger.Named("persistence")

			Convey("Then it logs independently", func() {
				So(named, ShouldNotBeNil)
				So(func() { named.Info(ctx, "hello") }, ShouldNotPanic)
			})
		})

		Convey("When setting levels from strings", func() {
			Convey("Then known names parse", func() {
				for _, lvl := range []string{"debug", "info", "WARN", "warning", "error", ""} {
					So(logger.SetLevelString(lvl), ShouldBeNil)
				}
			})

			Convey("And unknown names fail", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})

	Convey("Given the nop logger", t, func() {
		Convey("Then it swallows everything", func() {
			l := logger.Nop()
			So(func() {
				l.Info(context.Background(), "ignored")
				l.Named("still").Error(context.Background(), "ignored")
			}, ShouldNotPanic)
		})
	})
}
