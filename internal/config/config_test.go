package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/finishline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DatabaseDriver, convey.ShouldEqual, "sqlite")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.FrameInterval(), convey.ShouldEqual, 16*time.Millisecond)
			convey.So(cfg.SessionTTL(), convey.ShouldEqual, 15*time.Minute)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the latency range converts to durations", func() {
			lo, hi := cfg.FaceMatchLatency()
			convey.So(lo, convey.ShouldEqual, 80*time.Millisecond)
			convey.So(hi, convey.ShouldEqual, 150*time.Millisecond)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"unknown driver", func(c *config.Config) { c.DatabaseDriver = "mysql" }},
			{"empty dsn", func(c *config.Config) { c.DatabaseDSN = "" }},
			{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }},
			{"negative pending selfies", func(c *config.Config) { c.MaxPendingSelfies = -1 }},
			{"inverted page sizes", func(c *config.Config) { c.MaxPageSize = c.DefaultPageSize - 1 }},
			{"zero batch", func(c *config.Config) { c.BatchSize = 0 }},
			{"zero frame interval", func(c *config.Config) { c.FrameIntervalMS = 0 }},
			{"negative aspect", func(c *config.Config) { c.PlaceholderAspect = -1 }},
			{"zero ttl", func(c *config.Config) { c.SessionTTLSeconds = 0 }},
			{"zero match timeout", func(c *config.Config) { c.FaceMatchTimeoutMS = 0 }},
			{"empty latency range", func(c *config.Config) { c.FaceMatchLatencyMaxMS = c.FaceMatchLatencyMinMS }},
		}

		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected as invalid config", func() {
				cfg := config.New(context.Background())
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
