package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/timesync/timesync/internal/config"
)

func TestConfigDefaults(t *testing.T) {
	convey.Convey("Given a config built from defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should carry sensible values", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.DefaultCandidateCount, convey.ShouldEqual, 5)
			convey.So(cfg.MaxCandidateCount, convey.ShouldEqual, 25)
			convey.So(cfg.DefaultMinPerGroup, convey.ShouldEqual, 1)
			convey.So(cfg.SessionDeadlineMinutes, convey.ShouldEqual, 5)
			convey.So(cfg.SessionRetentionMinutes, convey.ShouldEqual, 60)
			convey.So(cfg.EventBufferSize, convey.ShouldEqual, 256)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When no overrides are present", func() {
			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then defaults apply", func() {
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DefaultCandidateCount, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When environment variables override fields", func() {
			_ = os.Setenv("TIMESYNC_ADDR", ":8123")
			_ = os.Setenv("TIMESYNC_DEFAULT_CANDIDATE_COUNT", "7")
			_ = os.Setenv("TIMESYNC_SESSION_DEADLINE_MINUTES", "10")
			defer func() {
				_ = os.Unsetenv("TIMESYNC_ADDR")
				_ = os.Unsetenv("TIMESYNC_DEFAULT_CANDIDATE_COUNT")
				_ = os.Unsetenv("TIMESYNC_SESSION_DEADLINE_MINUTES")
			}()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the overrides win and the rest stay default", func() {
				convey.So(cfg.Addr, convey.ShouldEqual, ":8123")
				convey.So(cfg.DefaultCandidateCount, convey.ShouldEqual, 7)
				convey.So(cfg.SessionDeadlineMinutes, convey.ShouldEqual, 10)
				convey.So(cfg.MaxCandidateCount, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When an override violates validation", func() {
			_ = os.Setenv("TIMESYNC_DEFAULT_CANDIDATE_COUNT", "100")
			defer func() {
				_ = os.Unsetenv("TIMESYNC_DEFAULT_CANDIDATE_COUNT")
			}()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with the invalid config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file path points nowhere", func() {
			_ = os.Setenv("TIMESYNC_CONFIG", "/definitely/not/here.yaml")
			defer func() {
				_ = os.Unsetenv("TIMESYNC_CONFIG")
			}()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with the load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}
