package normalize_test

import (
	"errors"
	"testing"
	"time"

	"github.com/timesync/timesync/internal/domain/model"
	"github.com/timesync/timesync/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func utc(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func TestNormalizeDated(t *testing.T) {
	Convey("Given adjacent dated slots in UTC", t, func() {
		slots := []model.RawSlot{
			{Start: utc(2, 9, 0), End: utc(2, 10, 0)},
			{Start: utc(2, 10, 0), End: utc(2, 11, 0)},
		}

		Convey("When normalized", func() {
			out, err := normalize.Normalize(slots, "UTC")
			So(err, ShouldBeNil)

			Convey("Then they merge into one interval", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0], ShouldResemble, model.Dated{Start: utc(2, 9, 0), End: utc(2, 11, 0)})
			})
		})
	})

	Convey("Given overlapping dated slots", t, func() {
		slots := []model.RawSlot{
			{Start: utc(2, 9, 0), End: utc(2, 12, 0)},
			{Start: utc(2, 10, 0), End: utc(2, 11, 0)},
		}

		Convey("When normalized", func() {
			out, err := normalize.Normalize(slots, "UTC")
			So(err, ShouldBeNil)

			Convey("Then the union wins", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0], ShouldResemble, model.Dated{Start: utc(2, 9, 0), End: utc(2, 12, 0)})
			})
		})
	})

	Convey("Given disjoint dated slots", t, func() {
		slots := []model.RawSlot{
			{Start: utc(2, 9, 0), End: utc(2, 10, 0)},
			{Start: utc(2, 14, 0), End: utc(2, 15, 0)},
		}

		Convey("When normalized", func() {
			out, err := normalize.Normalize(slots, "UTC")
			So(err, ShouldBeNil)

			Convey("Then both survive, sorted by start", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0], ShouldResemble, model.Dated{Start: utc(2, 9, 0), End: utc(2, 10, 0)})
				So(out[1], ShouldResemble, model.Dated{Start: utc(2, 14, 0), End: utc(2, 15, 0)})
			})
		})
	})

	Convey("Given a sub-hour slot", t, func() {
		slots := []model.RawSlot{
			{Start: utc(2, 9, 30), End: utc(2, 10, 15)},
		}

		Convey("When normalized", func() {
			out, err := normalize.Normalize(slots, "UTC")
			So(err, ShouldBeNil)

			Convey("Then it widens outward to hour boundaries", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0], ShouldResemble, model.Dated{Start: utc(2, 9, 0), End: utc(2, 11, 0)})
			})
		})
	})

	Convey("Given a wall-clock slot in another timezone", t, func() {
		// March 2 2026 is before the US DST switch, so New York is UTC-5.
		slots := []model.RawSlot{
			{Start: utc(2, 9, 0), End: utc(2, 11, 0)},
		}

		Convey("When normalized in America/New_York", func() {
			out, err := normalize.Normalize(slots, "America/New_York")
			So(err, ShouldBeNil)

			Convey("Then the span shifts onto UTC", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0], ShouldResemble, model.Dated{Start: utc(2, 14, 0), End: utc(2, 16, 0)})
			})
		})
	})
}

func TestNormalizeRecurring(t *testing.T) {
	Convey("Given a weekly template on a Monday", t, func() {
		// March 2 2026 is a Monday.
		slots := []model.RawSlot{
			{Start: utc(2, 9, 0), End: utc(2, 11, 0), Recurring: true},
		}

		Convey("When normalized in UTC", func() {
			out, err := normalize.Normalize(slots, "UTC")
			So(err, ShouldBeNil)

			Convey("Then it projects onto day-of-week and hours", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0], ShouldResemble, model.Recurring{Day: time.Monday, StartHour: 9, EndHour: 11})
			})
		})

		Convey("When normalized in Asia/Tokyo", func() {
			out, err := normalize.Normalize(slots, "Asia/Tokyo")
			So(err, ShouldBeNil)

			Convey("Then the template shifts nine hours back", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0], ShouldResemble, model.Recurring{Day: time.Monday, StartHour: 0, EndHour: 2})
			})
		})
	})

	Convey("Given a template crossing midnight", t, func() {
		// March 6 2026 is a Friday.
		slots := []model.RawSlot{
			{Start: utc(6, 22, 0), End: utc(7, 2, 0), Recurring: true},
		}

		Convey("When normalized", func() {
			out, err := normalize.Normalize(slots, "UTC")
			So(err, ShouldBeNil)

			Convey("Then it stays a single wrapping interval", func() {
				So(out, ShouldHaveLength, 1)
				r, ok := out[0].(model.Recurring)
				So(ok, ShouldBeTrue)
				So(r, ShouldResemble, model.Recurring{Day: time.Friday, StartHour: 22, EndHour: 2})
				So(r.Wraps(), ShouldBeTrue)
				So(r.Units(), ShouldEqual, 4)
			})
		})
	})

	Convey("Given adjacent templates on the same day", t, func() {
		slots := []model.RawSlot{
			{Start: utc(2, 9, 0), End: utc(2, 10, 0), Recurring: true},
			{Start: utc(2, 10, 0), End: utc(2, 12, 0), Recurring: true},
		}

		Convey("When normalized", func() {
			out, err := normalize.Normalize(slots, "UTC")
			So(err, ShouldBeNil)

			Convey("Then they merge per day", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0], ShouldResemble, model.Recurring{Day: time.Monday, StartHour: 9, EndHour: 12})
			})
		})
	})

	Convey("Given templates on different days", t, func() {
		// March 2 is Monday, March 4 is Wednesday.
		slots := []model.RawSlot{
			{Start: utc(4, 9, 0), End: utc(4, 10, 0), Recurring: true},
			{Start: utc(2, 9, 0), End: utc(2, 10, 0), Recurring: true},
		}

		Convey("When normalized", func() {
			out, err := normalize.Normalize(slots, "UTC")
			So(err, ShouldBeNil)

			Convey("Then they stay separate and sort by day", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0], ShouldResemble, model.Recurring{Day: time.Monday, StartHour: 9, EndHour: 10})
				So(out[1], ShouldResemble, model.Recurring{Day: time.Wednesday, StartHour: 9, EndHour: 10})
			})
		})
	})
}

func TestNormalizeIdempotence(t *testing.T) {
	Convey("Given an already-normalized dated set", t, func() {
		slots := []model.RawSlot{
			{Start: utc(2, 9, 30), End: utc(2, 11, 45)},
			{Start: utc(3, 14, 0), End: utc(3, 16, 0)},
		}
		first, err := normalize.Normalize(slots, "UTC")
		So(err, ShouldBeNil)

		Convey("When fed back through normalization in UTC", func() {
			raw := make([]model.RawSlot, 0, len(first))
			for _, iv := range first {
				d := iv.(model.Dated)
				raw = append(raw, model.RawSlot{Start: d.Start, End: d.End})
			}
			second, err := normalize.Normalize(raw, "UTC")
			So(err, ShouldBeNil)

			Convey("Then the output is unchanged", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestNormalizeErrors(t *testing.T) {
	Convey("Given a slot whose end does not follow its start", t, func() {
		slots := []model.RawSlot{
			{Start: utc(2, 10, 0), End: utc(2, 10, 0)},
		}

		Convey("When normalized", func() {
			_, err := normalize.Normalize(slots, "UTC")

			Convey("Then it fails with the invalid slot error", func() {
				So(errors.Is(err, normalize.ErrInvalidSlot), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unknown timezone", t, func() {
		slots := []model.RawSlot{
			{Start: utc(2, 9, 0), End: utc(2, 10, 0)},
		}

		Convey("When normalized", func() {
			_, err := normalize.Normalize(slots, "Atlantis/Lost_City")

			Convey("Then it fails with the zone resolution error", func() {
				So(errors.Is(err, normalize.ErrZoneResolution), ShouldBeTrue)
			})
		})
	})

	Convey("Given no slots at all", t, func() {
		out, err := normalize.Normalize(nil, "UTC")

		Convey("Then the result is empty, not an error", func() {
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}
