package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/adapters/repository"
	service "github.com/timesync/timesync/internal/app"
	"github.com/timesync/timesync/internal/confirm"
	"github.com/timesync/timesync/internal/domain/match"
	"github.com/timesync/timesync/internal/domain/model"
	"github.com/timesync/timesync/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const waitTimeout = 2 * time.Second

// monday returns a wall-clock instant on Monday March 2 2026.
func monday(hour int) time.Time {
	return time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC)
}

func weeklySchedule(id, zone string, startHour, endHour int) model.MemberSchedule {
	return model.MemberSchedule{
		ParticipantID: id,
		Timezone:      zone,
		Slots: []model.RawSlot{
			{Start: monday(startHour), End: monday(endHour), Recurring: true},
		},
	}
}

func newDirectory(groupID uuid.UUID) *repository.MemoryDirectory {
	dir := repository.NewMemoryDirectory()
	dir.PutGroup(model.Group{ID: groupID, Name: "squad", MemberIDs: []string{"alice", "bob"}})
	dir.PutMemberSchedule(weeklySchedule("alice", "UTC", 9, 11))
	dir.PutMemberSchedule(weeklySchedule("bob", "UTC", 9, 11))
	return dir
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should be creatable", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then starting again is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})
	})
}

func TestService_Match(t *testing.T) {
	Convey("Given a service over a populated directory", t, func() {
		ctx := context.Background()
		groupID := uuid.New()
		svc := service.New(service.WithDirectory(newDirectory(groupID)))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When matching with full attendance required", func() {
			out, err := svc.Match(ctx, model.MatchRequest{GroupIDs: []uuid.UUID{groupID}, MinPerGroup: 2})
			So(err, ShouldBeNil)

			Convey("Then the shared weekly window comes back", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].Window, ShouldResemble, model.Recurring{Day: time.Monday, StartHour: 9, EndHour: 11})
				So(out[0].PerGroup[0].Attending, ShouldResemble, []string{"alice", "bob"})
			})
		})

		Convey("When the request names no groups", func() {
			_, err := svc.Match(ctx, model.MatchRequest{})
			So(errors.Is(err, service.ErrNoGroups), ShouldBeTrue)
		})

		Convey("When the request names an unknown group", func() {
			_, err := svc.Match(ctx, model.MatchRequest{GroupIDs: []uuid.UUID{uuid.New()}})
			So(errors.Is(err, repository.ErrGroupNotFound), ShouldBeTrue)
		})

		Convey("When the minimum exceeds the membership", func() {
			_, err := svc.Match(ctx, model.MatchRequest{GroupIDs: []uuid.UUID{groupID}, MinPerGroup: 3})
			So(errors.Is(err, match.ErrUnsatisfiableGroup), ShouldBeTrue)
		})
	})

	Convey("Given a group member without a stored schedule", t, func() {
		ctx := context.Background()
		groupID := uuid.New()
		dir := newDirectory(groupID)
		dir.PutGroup(model.Group{ID: groupID, Name: "squad", MemberIDs: []string{"alice", "bob", "carol"}})
		svc := service.New(service.WithDirectory(dir))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When matching", func() {
			out, err := svc.Match(ctx, model.MatchRequest{GroupIDs: []uuid.UUID{groupID}, MinPerGroup: 2})
			So(err, ShouldBeNil)

			Convey("Then the absent member is simply unavailable", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].PerGroup[0].Attending, ShouldResemble, []string{"alice", "bob"})
			})
		})
	})

	Convey("Given a service with a low candidate cap", t, func() {
		ctx := context.Background()
		groupID := uuid.New()
		dir := repository.NewMemoryDirectory()
		dir.PutGroup(model.Group{ID: groupID, Name: "squad", MemberIDs: []string{"alice", "bob"}})
		dir.PutMemberSchedule(model.MemberSchedule{
			ParticipantID: "alice",
			Timezone:      "UTC",
			Slots:         []model.RawSlot{{Start: monday(9), End: monday(11)}},
		})
		dir.PutMemberSchedule(model.MemberSchedule{
			ParticipantID: "bob",
			Timezone:      "UTC",
			Slots:         []model.RawSlot{{Start: monday(10), End: monday(12)}},
		})
		svc := service.New(
			service.WithDirectory(dir),
			service.WithMaxCandidateCount(2),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the request asks for more than the cap", func() {
			out, err := svc.Match(ctx, model.MatchRequest{GroupIDs: []uuid.UUID{groupID}, Count: 5})
			So(err, ShouldBeNil)

			Convey("Then the cap wins", func() {
				So(out, ShouldHaveLength, 2)
			})
		})
	})
}

func TestService_Confirmation(t *testing.T) {
	Convey("Given matched candidates", t, func() {
		ctx := context.Background()
		groupID := uuid.New()
		svc := service.New(service.WithDirectory(newDirectory(groupID)))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		candidates, err := svc.Match(ctx, model.MatchRequest{GroupIDs: []uuid.UUID{groupID}, MinPerGroup: 2})
		So(err, ShouldBeNil)
		So(candidates, ShouldHaveLength, 1)

		Convey("When a confirmation session is opened", func() {
			sess, err := svc.StartConfirmation(ctx, candidates, time.Minute)
			So(err, ShouldBeNil)

			Convey("Then the session is registered and pending", func() {
				got, ok := svc.Session(sess.ID())
				So(ok, ShouldBeTrue)
				So(got.Result().State, ShouldEqual, confirm.StatePending)
			})

			Convey("Then the candidate reaches the notice stream", func() {
				select {
				case n := <-svc.Notices():
					So(n.SessionID, ShouldResemble, sess.ID())
					So(n.Eligible, ShouldResemble, []string{"alice", "bob"})
				case <-time.After(waitTimeout):
					So(false, ShouldBeTrue)
				}
			})

			Convey("And when every eligible member accepts", func() {
				So(svc.SubmitEvent(ctx, confirm.Event{
					SessionID: sess.ID(), ParticipantID: "alice", CandidateIndex: 0, Accept: true,
				}), ShouldBeTrue)
				So(svc.SubmitEvent(ctx, confirm.Event{
					SessionID: sess.ID(), ParticipantID: "bob", CandidateIndex: 0, Accept: true,
				}), ShouldBeTrue)

				Convey("Then the session confirms the candidate", func() {
					select {
					case <-sess.Done():
					case <-time.After(waitTimeout):
					}
					res := sess.Result()
					So(res.State, ShouldEqual, confirm.StateConfirmed)
					So(res.CandidateIndex, ShouldEqual, 0)
				})
			})
		})

		Convey("When opened without candidates", func() {
			_, err := svc.StartConfirmation(ctx, nil, time.Minute)
			So(errors.Is(err, service.ErrNoCandidates), ShouldBeTrue)
		})

		Convey("When a session id is unknown", func() {
			_, ok := svc.Session(uuid.New())
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a service that was never started", t, func() {
		ctx := context.Background()
		svc := service.New()
		fake := []model.Candidate{{
			Window:   model.Recurring{Day: time.Monday, StartHour: 9, EndHour: 10},
			PerGroup: []model.GroupAttendance{{GroupID: uuid.New(), Attending: []string{"alice"}, MinRequired: 1}},
		}}

		Convey("When a confirmation is requested", func() {
			_, err := svc.StartConfirmation(ctx, fake, time.Minute)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}
