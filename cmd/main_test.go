package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/duelo/internal/app"
	"github.com/okian/duelo/internal/config"
	"github.com/okian/duelo/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainComponents(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("DUELO_DATA_FILE", filepath.Join(t.TempDir(), "ratings.json"))
			t.Setenv("DUELO_BASE_K", "32")
			t.Setenv("DUELO_UNDO_DEPTH", "5")

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.BaseK, convey.ShouldEqual, 32.0)
				convey.So(cfg.UndoDepth, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When testing session creation", func() {
			convey.Convey("Then a session should be creatable with default options", func() {
				svc := service.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And a session should be creatable with custom options", func() {
				svc := service.New(
					service.WithBaseK(16),
					service.WithUndoDepth(10),
					service.WithSaveDebounce(50*time.Millisecond),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				registry := prometheus.NewRegistry()
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestBuildResolver(t *testing.T) {
	convey.Convey("Given a corpus directory", t, func() {
		root := t.TempDir()
		convey.So(os.WriteFile(filepath.Join(root, "a.png"), []byte("x"), 0600), convey.ShouldBeNil)
		convey.So(os.WriteFile(filepath.Join(root, "b.png"), []byte("y"), 0600), convey.ShouldBeNil)
		convey.So(os.MkdirAll(filepath.Join(root, "sub"), 0750), convey.ShouldBeNil)
		convey.So(os.WriteFile(filepath.Join(root, "sub", "c.txt"), []byte("z"), 0600), convey.ShouldBeNil)
		convey.So(os.MkdirAll(filepath.Join(root, ".hidden"), 0750), convey.ShouldBeNil)
		convey.So(os.WriteFile(filepath.Join(root, ".hidden", "d.txt"), []byte("w"), 0600), convey.ShouldBeNil)

		convey.Convey("When the resolver is built", func() {
			resolver, count, err := buildResolver(root)

			convey.Convey("Then visible files register and hidden directories are skipped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(resolver, convey.ShouldNotBeNil)
				convey.So(count, convey.ShouldEqual, 3)
			})
		})
	})
}
