package timeline

import (
	"context"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"virtual-office-backend/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

func baseUsers() []model.User {
	return []model.User{
		{ID: "u1", Name: "Ada", Status: "online", Position: model.Position{X: 0, Y: 0}},
		{ID: "u2", Name: "Grace", Status: "busy", Position: model.Position{X: 100, Y: 100}},
	}
}

func findUser(t *testing.T, users []model.User, id string) model.User {
	t.Helper()
	for _, u := range users {
		if u.ID == id {
			return u
		}
	}
	t.Fatalf("user %q not found in %+v", id, users)
	return model.User{}
}

func TestProject_MoveScenario(t *testing.T) {
	e := NewEngine()
	e.AddEvent(NewMove(at(10), "u1", "", model.Position{X: 5, Y: 5}))
	e.AddEvent(NewMove(at(20), "u1", "", model.Position{X: 9, Y: 9}))

	base := []model.User{{ID: "u1", Position: model.Position{X: 0, Y: 0}}}

	tests := []struct {
		name   string
		target time.Time
		want   model.Position
	}{
		{name: "before first event", target: at(5), want: model.Position{X: 0, Y: 0}},
		{name: "between events", target: at(15), want: model.Position{X: 5, Y: 5}},
		{name: "after last event", target: at(25), want: model.Position{X: 9, Y: 9}},
		{name: "exactly at event", target: at(20), want: model.Position{X: 9, Y: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findUser(t, e.Project(tt.target, base), "u1")
			if got.Position != tt.want {
				t.Fatalf("position = %+v, want %+v", got.Position, tt.want)
			}
		})
	}
}

func TestProject_SortsOutOfOrderInserts(t *testing.T) {
	e := NewEngine()
	e.AddEvent(NewMove(at(20), "u1", "", model.Position{X: 2, Y: 2}))
	e.AddEvent(NewMove(at(10), "u1", "", model.Position{X: 1, Y: 1}))

	got := findUser(t, e.Project(at(30), baseUsers()), "u1")
	if got.Position != (model.Position{X: 2, Y: 2}) {
		t.Fatalf("position = %+v, want latest timestamp to win", got.Position)
	}
}

func TestProject_TiesKeepInsertionOrder(t *testing.T) {
	e := NewEngine()
	e.AddEvent(NewStatus(at(10), "u1", "", "first"))
	e.AddEvent(NewStatus(at(10), "u1", "", "second"))
	e.AddEvent(NewStatus(at(10), "u1", "", "third"))

	for i := 0; i < 5; i++ {
		got := findUser(t, e.Project(at(10), baseUsers()), "u1")
		if got.Status != "third" {
			t.Fatalf("status = %q, want %q", got.Status, "third")
		}
	}
}

func TestProject_StatusAndMoveAreIndependent(t *testing.T) {
	e := NewEngine()
	e.AddEvent(NewMove(at(1), "u2", "", model.Position{X: 7, Y: 8}))
	e.AddEvent(NewStatus(at(2), "u2", "", "in a meeting"))

	got := findUser(t, e.Project(at(3), baseUsers()), "u2")
	if got.Position != (model.Position{X: 7, Y: 8}) {
		t.Fatalf("position = %+v, want {7 8}", got.Position)
	}
	if got.Status != "in a meeting" {
		t.Fatalf("status = %q, want %q", got.Status, "in a meeting")
	}
	if got.Name != "Grace" {
		t.Fatalf("name = %q, other fields must be preserved", got.Name)
	}
}

func TestProject_IgnoresUnknownUsersAndActions(t *testing.T) {
	e := NewEngine()
	e.AddEvent(NewMove(at(1), "ghost", "", model.Position{X: 50, Y: 50}))
	e.AddEvent(TimePoint{Timestamp: at(2), UserID: "u1", Change: Join{}})
	e.AddEvent(TimePoint{Timestamp: at(3), UserID: "u1", Change: Leave{}})
	e.AddEvent(TimePoint{Timestamp: at(4), UserID: "u1", Change: Unknown{Kind: "teleport"}})
	e.AddEvent(TimePoint{Timestamp: at(5), UserID: "u1"})

	got := e.Project(at(10), baseUsers())
	if !reflect.DeepEqual(got, baseUsers()) {
		t.Fatalf("projection = %+v, want base users unchanged", got)
	}
}

func TestProject_DoesNotMutateBase(t *testing.T) {
	color := "#ff0000"
	base := []model.User{{ID: "u1", Color: &color, Position: model.Position{X: 1, Y: 1}}}
	e := NewEngine()
	e.AddEvent(NewMove(at(1), "u1", "", model.Position{X: 2, Y: 2}))

	got := e.Project(at(5), base)
	*got[0].Color = "#00ff00"

	if base[0].Position != (model.Position{X: 1, Y: 1}) {
		t.Fatalf("base position mutated: %+v", base[0].Position)
	}
	if *base[0].Color != "#ff0000" {
		t.Fatalf("base color mutated: %q", *base[0].Color)
	}
}

func TestProject_Deterministic(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 20; i++ {
		e.AddEvent(NewMove(at(i%7), "u1", "", model.Position{X: float64(i), Y: float64(-i)}))
		e.AddEvent(NewStatus(at(i%5), "u2", "", "s"+string(rune('a'+i))))
	}

	first := e.Project(at(4), baseUsers())
	second := e.Project(at(4), baseUsers())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("projection not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestProject_MonotonicAndStableAfterLaterEvents(t *testing.T) {
	e := NewEngine()
	e.AddEvent(NewMove(at(10), "u1", "", model.Position{X: 1, Y: 1}))
	e.AddEvent(NewStatus(at(12), "u2", "", "away"))

	earlier := e.Project(at(15), baseUsers())

	// 이후 시각 이벤트는 이전 투영 결과를 바꾸지 않는다
	e.AddEvent(NewMove(at(30), "u1", "", model.Position{X: 3, Y: 3}))
	again := e.Project(at(15), baseUsers())
	if !reflect.DeepEqual(earlier, again) {
		t.Fatalf("projection changed after later event:\n%+v\n%+v", earlier, again)
	}

	later := e.Project(at(20), baseUsers())
	if findUser(t, later, "u2").Status != "away" {
		t.Fatal("event reflected at t1 disappeared at t2")
	}
	if findUser(t, later, "u1").Position != (model.Position{X: 1, Y: 1}) {
		t.Fatal("move reflected at t1 disappeared at t2")
	}
}

func TestProjectWith_DimensionFilter(t *testing.T) {
	e := NewEngine()
	e.AddEvent(NewMove(at(1), "u1", "", model.Position{X: 1, Y: 1}))
	e.AddEvent(NewMove(at(2), "u1", "fork-a", model.Position{X: 2, Y: 2}))

	root := findUser(t, e.ProjectWith(at(5), baseUsers(), ForDimension(model.DefaultDimensionID)), "u1")
	if root.Position != (model.Position{X: 1, Y: 1}) {
		t.Fatalf("default dimension position = %+v, want {1 1}", root.Position)
	}

	fork := findUser(t, e.ProjectWith(at(5), baseUsers(), ForDimension("fork-a")), "u1")
	if fork.Position != (model.Position{X: 2, Y: 2}) {
		t.Fatalf("fork position = %+v, want {2 2}", fork.Position)
	}
}

func TestAdvance_UsesSpeedAndPause(t *testing.T) {
	clock := newFakeClock()
	e := NewEngine(WithNow(clock.Now), WithStartTime(epoch))

	e.Advance(time.Second)
	if got := e.CurrentTime(); !got.Equal(at(1)) {
		t.Fatalf("current time = %v, want %v", got, at(1))
	}

	if err := e.SetSpeed(2.5); err != nil {
		t.Fatalf("SetSpeed returned error: %v", err)
	}
	e.Advance(2 * time.Second)
	if got := e.CurrentTime(); !got.Equal(at(6)) {
		t.Fatalf("current time = %v, want %v", got, at(6))
	}

	e.TogglePause()
	e.Advance(time.Hour)
	if got := e.CurrentTime(); !got.Equal(at(6)) {
		t.Fatalf("paused clock advanced to %v", got)
	}
}

func TestSetSpeed_RejectsNonFinite(t *testing.T) {
	e := NewEngine()
	for _, s := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := e.SetSpeed(s); err != ErrInvalidSpeed {
			t.Fatalf("SetSpeed(%v) error = %v, want %v", s, err, ErrInvalidSpeed)
		}
	}
	if got := e.State().Speed; got != 1 {
		t.Fatalf("speed = %v, want 1", got)
	}
}

func TestAdvance_HugeSpeedSaturates(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		want  time.Time
	}{
		{"forward", 1e12, epoch.Add(time.Duration(math.MaxInt64))},
		{"backward", -1e12, epoch.Add(time.Duration(math.MinInt64))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(WithNow(newFakeClock().Now), WithStartTime(epoch))
			if err := e.SetSpeed(tt.speed); err != nil {
				t.Fatalf("SetSpeed(%v) error = %v", tt.speed, err)
			}

			got := e.Advance(100 * time.Millisecond)
			if !got.Equal(tt.want) {
				t.Fatalf("current time = %v, want %v", got, tt.want)
			}
			if tt.speed > 0 && !got.After(epoch) {
				t.Fatalf("positive speed moved the clock backwards to %v", got)
			}
		})
	}
}

func TestScaleDuration(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		speed   float64
		want    time.Duration
	}{
		{time.Second, 2, 2 * time.Second},
		{time.Second, -0.5, -500 * time.Millisecond},
		{time.Second, 0, 0},
		{time.Hour, 1e9, time.Duration(math.MaxInt64)},
		{time.Hour, -1e9, time.Duration(math.MinInt64)},
	}
	for _, tt := range tests {
		if got := scaleDuration(tt.elapsed, tt.speed); got != tt.want {
			t.Fatalf("scaleDuration(%v, %v) = %v, want %v", tt.elapsed, tt.speed, got, tt.want)
		}
	}
}

func TestTick_MeasuresWallClockDelta(t *testing.T) {
	clock := newFakeClock()
	e := NewEngine(WithNow(clock.Now), WithStartTime(epoch), WithSpeed(10))

	clock.Advance(100 * time.Millisecond)
	e.Tick()
	clock.Advance(100 * time.Millisecond)
	e.Tick()

	if got := e.CurrentTime(); !got.Equal(at(2)) {
		t.Fatalf("current time = %v, want %v", got, at(2))
	}
}

func TestTogglePause_ResumeDoesNotCatchUp(t *testing.T) {
	clock := newFakeClock()
	e := NewEngine(WithNow(clock.Now), WithStartTime(epoch), WithSpeed(3))

	if paused := e.TogglePause(); !paused {
		t.Fatal("expected clock to be paused")
	}
	clock.Advance(10 * time.Second)
	if paused := e.TogglePause(); paused {
		t.Fatal("expected clock to be running")
	}

	clock.Advance(100 * time.Millisecond)
	e.Tick()

	want := epoch.Add(300 * time.Millisecond)
	if got := e.CurrentTime(); !got.Equal(want) {
		t.Fatalf("current time = %v, want %v (no catch-up jump)", got, want)
	}
}

func TestTogglePause_PausedTicksDoNotAccumulate(t *testing.T) {
	clock := newFakeClock()
	e := NewEngine(WithNow(clock.Now), WithStartTime(epoch))

	e.TogglePause()
	for i := 0; i < 50; i++ {
		clock.Advance(100 * time.Millisecond)
		e.Tick()
	}
	e.TogglePause()
	e.Tick()

	if got := e.CurrentTime(); !got.Equal(epoch) {
		t.Fatalf("current time = %v, want %v", got, epoch)
	}
}

func TestJumpToTime_Pauses(t *testing.T) {
	e := NewEngine()
	e.JumpToTime(at(42))

	state := e.State()
	if !state.IsPaused {
		t.Fatal("expected jump to pause the clock")
	}
	if !state.CurrentTime.Equal(at(42)) {
		t.Fatalf("current time = %v, want %v", state.CurrentTime, at(42))
	}
}

func TestSetCurrentTime_KeepsPauseState(t *testing.T) {
	e := NewEngine()
	e.SetCurrentTime(at(7))
	if e.IsPaused() {
		t.Fatal("SetCurrentTime must not pause")
	}
	if got := e.CurrentTime(); !got.Equal(at(7)) {
		t.Fatalf("current time = %v, want %v", got, at(7))
	}
}

func TestToggleRecording_IsFlagOnly(t *testing.T) {
	e := NewEngine(WithStartTime(epoch))
	if !e.ToggleRecording() {
		t.Fatal("expected recording on")
	}
	state := e.State()
	if state.EventCount != 0 || !state.CurrentTime.Equal(epoch) {
		t.Fatalf("recording toggle changed state: %+v", state)
	}
	if e.ToggleRecording() {
		t.Fatal("expected recording off")
	}
}

func TestEvents_ReturnsCopy(t *testing.T) {
	e := NewEngine()
	e.AddEvent(NewMove(at(1), "u1", "", model.Position{X: 1, Y: 1}))

	events := e.Events()
	events[0] = NewMove(at(1), "u1", "", model.Position{X: 99, Y: 99})

	if got := e.Events()[0].Change.(Move).Position; got != (model.Position{X: 1, Y: 1}) {
		t.Fatalf("stored event mutated through copy: %+v", got)
	}
}

func TestRun_RemountResyncsReference(t *testing.T) {
	clock := newFakeClock()
	e := NewEngine(WithNow(clock.Now), WithStartTime(epoch))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	// 언마운트 상태에서 벽시계만 흐른다
	clock.Advance(10 * time.Second)

	ctx, cancel = context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		e.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	if got := e.CurrentTime(); !got.Equal(epoch) {
		t.Fatalf("current time = %v, want %v (remount must not jump)", got, epoch)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx, 0)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
