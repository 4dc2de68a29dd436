package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given the metrics manager", t, func() {
		Convey("When created with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it registers without collision", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When created with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it is created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When the package helpers fire", func() {
			RecordMatchApplied()
			RecordDraw()
			RecordUndo()
			RecordUndoFailure()
			UpdatePlayersTotal(12)
			UpdateCohortsTotal(3)
			RecordPairPicked()
			RecordNoPairRound()
			RecordSaveScheduled()
			RecordSaveWrite()
			RecordSaveError()
			RecordSaveLatency(2.5)
			UpdateSnapshotBytes(1024)
			RecordMalformedLoad()

			Convey("Then the registry gathers them all", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThanOrEqualTo, 14)
			})
		})
	})
}
