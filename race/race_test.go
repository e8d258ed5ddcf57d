package race

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reel-cli/reel/playback"
	. "github.com/smartystreets/goconvey/convey"
)

// blocker waits for cancellation and counts it.
func blocker(cancelled *int32) Attempt[string] {
	return func(ctx context.Context) (string, error) {
		<-ctx.Done()
		atomic.AddInt32(cancelled, 1)
		return "", ctx.Err()
	}
}

func after(d time.Duration, value string, err error) Attempt[string] {
	return func(ctx context.Context) (string, error) {
		select {
		case <-time.After(d):
			return value, err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func nonEmpty(s string) bool { return s != "" }

func TestFirst(t *testing.T) {
	Convey("Given exactly one attempt that eventually succeeds", t, func() {
		for position := 0; position < 4; position++ {
			var cancelled int32
			attempts := make([]Attempt[string], 4)
			for i := range attempts {
				attempts[i] = blocker(&cancelled)
			}
			attempts[position] = after(20*time.Millisecond, "winner", nil)

			value, err := First(context.Background(), attempts, nonEmpty)
			So(err, ShouldBeNil)
			So(value, ShouldEqual, "winner")

			So(waitFor(func() bool { return atomic.LoadInt32(&cancelled) == 3 }), ShouldBeTrue)
		}
	})

	Convey("Given failures that finish before the winner", t, func() {
		attempts := []Attempt[string]{
			after(time.Millisecond, "", playback.NetworkError(errors.New("refused"))),
			after(2*time.Millisecond, "", playback.ErrInvalidResponse),
			after(30*time.Millisecond, "late", nil),
		}

		value, err := First(context.Background(), attempts, nonEmpty)
		So(err, ShouldBeNil)
		So(value, ShouldEqual, "late")
	})

	Convey("Given an invalid result that finishes first", t, func() {
		attempts := []Attempt[string]{
			after(time.Millisecond, "", nil),
			after(20*time.Millisecond, "valid", nil),
		}

		value, err := First(context.Background(), attempts, nonEmpty)
		So(err, ShouldBeNil)
		So(value, ShouldEqual, "valid")
	})

	Convey("The faster attempt wins regardless of declaration order", t, func() {
		attempts := []Attempt[string]{
			after(80*time.Millisecond, "slow", nil),
			after(5*time.Millisecond, "fast", nil),
		}

		value, err := First(context.Background(), attempts, nonEmpty)
		So(err, ShouldBeNil)
		So(value, ShouldEqual, "fast")
	})

	Convey("Given only failing attempts", t, func() {
		attempts := []Attempt[string]{
			after(time.Millisecond, "", playback.NetworkError(errors.New("refused"))),
			after(time.Millisecond, "", nil),
		}

		_, err := First(context.Background(), attempts, nonEmpty)
		So(errors.Is(err, playback.ErrAllResolversFailed), ShouldBeTrue)
		So(errors.Is(err, playback.ErrNetwork), ShouldBeTrue)
		So(strings.Contains(err.Error(), "attempt 1"), ShouldBeTrue)
	})

	Convey("With no attempts there is no resolver", t, func() {
		_, err := First[string](context.Background(), nil, nonEmpty)
		So(errors.Is(err, playback.ErrNoResolverAvailable), ShouldBeTrue)
	})

	Convey("Cancelling the parent stops the race", t, func() {
		var cancelled int32
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := First(ctx, []Attempt[string]{blocker(&cancelled), blocker(&cancelled)}, nonEmpty)
		So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		So(waitFor(func() bool { return atomic.LoadInt32(&cancelled) == 2 }), ShouldBeTrue)
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
