package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			registryOpt := WithPrometheusRegistry(prometheus.NewRegistry())

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(registryOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register every metric family", func() {
				So(manager, ShouldNotBeNil)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["timesync_match_requests_total"], ShouldBeTrue)
				So(names["timesync_confirm_sessions_active"], ShouldBeTrue)
				So(names["timesync_confirm_events_applied_total"], ShouldBeTrue)
			})
		})

		Convey("When creating with a custom namespace", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("other"),
				WithHistogramBuckets([]float64{1, 5, 25}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the namespace prefixes every family", func() {
				So(manager, ShouldNotBeNil)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				for _, f := range families {
					So(f.GetName(), ShouldStartWith, "other_")
				}
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording through the package helpers", func() {
			RecordMatchRequest()
			RecordMatchFailure("test")
			RecordMatchLatency(12.5)
			RecordCandidatesReturned(3)
			RecordNormalizeError()
			RecordGridUnits(42)
			IncSessionsActive()
			DecSessionsActive()
			RecordSessionOutcome("confirmed")
			RecordEventApplied()
			RecordEventIgnored()
			RecordEventAfterClose()
			RecordCandidatePublish()
			RecordDirectoryLatency(3.2)
			RecordDirectoryError()
			RecordHTTPRequest("match", "GET", "200")
			RecordHTTPRequestDuration("match", "GET", "200", 7.0)

			Convey("Then the custom registry gathers without error", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
