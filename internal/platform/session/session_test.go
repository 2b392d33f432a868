package session

import (
	"testing"
)

func TestStageDefaultsToBundlePending(t *testing.T) {
	s := New(NewToken())
	if got := s.Stage(); got != StageBundlePending {
		t.Errorf("expected bundle_pending on a fresh session, got %s", got)
	}
}

func TestRewindBundleKeepsAccountStep(t *testing.T) {
	cases := []struct {
		before, after IntakeStage
	}{
		{StageComplete, StageBundleOnly},
		{StageAccountPending, StageBundlePending},
		{StageBundlePending, StageBundlePending},
		{StageBundleOnly, StageBundleOnly},
	}
	for _, tc := range cases {
		s := restore("t", State{Stage: tc.before})
		s.RewindBundle()
		if s.Stage() != tc.after {
			t.Errorf("RewindBundle from %s: expected %s, got %s", tc.before, tc.after, s.Stage())
		}
	}
}

func TestRewindAccountKeepsBundleStep(t *testing.T) {
	cases := []struct {
		before, after IntakeStage
	}{
		{StageComplete, StageAccountPending},
		{StageBundleOnly, StageBundlePending},
		{StageBundlePending, StageBundlePending},
		{StageAccountPending, StageAccountPending},
	}
	for _, tc := range cases {
		s := restore("t", State{Stage: tc.before})
		s.RewindAccount()
		if s.Stage() != tc.after {
			t.Errorf("RewindAccount from %s: expected %s, got %s", tc.before, tc.after, s.Stage())
		}
	}
}

func TestUserIDRoundTrip(t *testing.T) {
	s := New(NewToken())
	if _, ok := s.UserID(); ok {
		t.Fatal("fresh session should carry no user")
	}
	s.SetUserID(42)
	id, ok := s.UserID()
	if !ok || id != 42 {
		t.Errorf("expected user 42, got %d ok=%v", id, ok)
	}
}

func TestRotateKeepsOldTokenOnce(t *testing.T) {
	s := New("t1")
	s.Rotate("t2")
	s.Rotate("t3")
	if s.Token() != "t3" {
		t.Errorf("expected current token t3, got %s", s.Token())
	}
	if s.oldToken != "t1" {
		t.Errorf("expected original token t1 to be remembered, got %s", s.oldToken)
	}
}

func TestPopFlashesConsumes(t *testing.T) {
	s := restore("t", State{})
	s.Flash("info", "hello")
	s.Flash("error", "oops")

	first := s.PopFlashes()
	if len(first) != 2 {
		t.Fatalf("expected 2 flashes, got %d", len(first))
	}
	if first[0].Message != "hello" || first[1].Level != "error" {
		t.Errorf("flashes out of order: %+v", first)
	}

	second := s.PopFlashes()
	if second == nil {
		t.Fatal("PopFlashes must never return nil")
	}
	if len(second) != 0 {
		t.Errorf("expected flashes consumed, got %+v", second)
	}
}

func TestPopReturnPath(t *testing.T) {
	s := restore("t", State{})
	if got := s.PopReturnPath("/account"); got != "/account" {
		t.Errorf("expected fallback, got %s", got)
	}
	s.SetReturnPath("/password")
	if got := s.PopReturnPath("/account"); got != "/password" {
		t.Errorf("expected stored path, got %s", got)
	}
	if got := s.PopReturnPath("/account"); got != "/account" {
		t.Errorf("expected path consumed, got %s", got)
	}
}

func TestClearWipesEverything(t *testing.T) {
	s := restore("t", State{})
	s.SetUserID(7)
	s.SetConfirmed(true)
	s.SetStage(StageComplete)
	s.Clear()
	if _, ok := s.UserID(); ok {
		t.Error("expected user cleared")
	}
	if s.Confirmed() {
		t.Error("expected confirmation cleared")
	}
	if s.Stage() != StageBundlePending {
		t.Error("expected stage reset to bundle_pending")
	}
}

func TestRestoreIsNotDirty(t *testing.T) {
	s := restore("t", State{Greeted: true})
	if s.dirty {
		t.Error("restored session should start clean")
	}
	s.SetGreeted(false)
	if !s.dirty {
		t.Error("mutation should mark the session dirty")
	}
}
