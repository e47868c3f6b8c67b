package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, DefaultTTL)
	ctx := context.Background()

	// Absent key yields a fresh session.
	sess, err := store.Get(ctx, "+919800000001")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Flow != FlowNone || sess.Step != StepNone {
		t.Fatalf("fresh session has flow=%q step=%q", sess.Flow, sess.Step)
	}

	sess.Flow = FlowGrievance
	sess.Step = StepGrievanceName
	sess.Language = "en"
	sess.Collected["name"] = "Asha Rao"
	if err := store.Put(ctx, "+919800000001", sess); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "+919800000001")
	if err != nil {
		t.Fatal(err)
	}
	if got.Flow != FlowGrievance || got.Step != StepGrievanceName {
		t.Errorf("flow=%q step=%q", got.Flow, got.Step)
	}
	if got.Collected["name"] != "Asha Rao" {
		t.Errorf("collected name = %q", got.Collected["name"])
	}
	if got.Language != "en" {
		t.Errorf("language = %q", got.Language)
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, DefaultTTL)
	ctx := context.Background()

	sess, _ := store.Get(ctx, "+919800000002")
	sess.Flow = FlowMainMenu
	if err := store.Put(ctx, "+919800000002", sess); err != nil {
		t.Fatal(err)
	}

	// Redis drops the key after the TTL.
	mr.FastForward(DefaultTTL + time.Minute)

	got, err := store.Get(ctx, "+919800000002")
	if err != nil {
		t.Fatal(err)
	}
	if got.Flow != FlowNone {
		t.Errorf("expired session should be fresh, got flow=%q", got.Flow)
	}
}

func TestRedisStoreClear(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, DefaultTTL)
	ctx := context.Background()

	sess, _ := store.Get(ctx, "+919800000003")
	sess.Flow = FlowTrackStatus
	sess.Step = StepTrackReference
	if err := store.Put(ctx, "+919800000003", sess); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx, "+919800000003"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "+919800000003")
	if err != nil {
		t.Fatal(err)
	}
	if got.Flow != FlowNone {
		t.Errorf("cleared session should be fresh, got flow=%q", got.Flow)
	}
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })
	ctx := context.Background()

	sess, _ := store.Get(ctx, "+919800000004")
	sess.Flow = FlowAppointment
	sess.Step = StepAppointmentName
	if err := store.Put(ctx, "+919800000004", sess); err != nil {
		t.Fatal(err)
	}

	// 29 minutes idle: still live.
	current = current.Add(29 * time.Minute)
	got, _ := store.Get(ctx, "+919800000004")
	if got.Flow != FlowAppointment {
		t.Errorf("session expired too early, flow=%q", got.Flow)
	}

	// 30 minutes idle: treated as absent.
	current = current.Add(time.Minute)
	got, _ = store.Get(ctx, "+919800000004")
	if got.Flow != FlowNone {
		t.Errorf("session should have expired, flow=%q", got.Flow)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore(DefaultTTL)
	ctx := context.Background()

	a, _ := store.Get(ctx, "+911111111111")
	a.Flow = FlowGrievance
	a.Step = StepGrievanceName
	if err := store.Put(ctx, "+911111111111", a); err != nil {
		t.Fatal(err)
	}

	b, _ := store.Get(ctx, "+912222222222")
	if b.Flow != FlowNone {
		t.Errorf("session B should be fresh, flow=%q", b.Flow)
	}

	// Mutating the returned copy must not leak into the store.
	b.Collected["name"] = "scribble"
	again, _ := store.Get(ctx, "+912222222222")
	if len(again.Collected) != 0 {
		t.Error("store returned a live reference instead of a copy")
	}
}

func TestValidStep(t *testing.T) {
	cases := []struct {
		flow Flow
		step Step
		want bool
	}{
		{FlowNone, StepNone, true},
		{FlowNone, StepGrievanceName, false},
		{FlowGrievance, StepGrievanceConfirm, true},
		{FlowGrievance, StepAppointmentDate, false},
		{FlowAppointment, StepAppointmentTime, true},
		{FlowTrackStatus, StepTrackReference, true},
		{FlowMainMenu, StepNone, true},
		{Flow("bogus"), StepNone, false},
	}
	for _, tc := range cases {
		if got := ValidStep(tc.flow, tc.step); got != tc.want {
			t.Errorf("ValidStep(%q, %q) = %v, want %v", tc.flow, tc.step, got, tc.want)
		}
	}
}
