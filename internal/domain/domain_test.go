package domain

import (
	"errors"
	"testing"
)

func TestRecommendationFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score  float64
		expect Recommendation
	}{
		{100, StrongFit},
		{80, StrongFit},
		{79.999, GoodFit},
		{60, GoodFit},
		{59.999, ModerateFit},
		{40, ModerateFit},
		{39.999, PoorFit},
		{0, PoorFit},
	}

	for _, tt := range tests {
		if got := RecommendationFor(tt.score); got != tt.expect {
			t.Errorf("score %v: expected %s, got %s", tt.score, tt.expect, got)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	allowed := []struct {
		from, to ApplicationStatus
	}{
		{StatusPending, StatusUnderReview},
		{StatusUnderReview, StatusShortlisted},
		{StatusUnderReview, StatusRejected},
		{StatusUnderReview, StatusInterviewed},
		{StatusUnderReview, StatusHired},
		{StatusShortlisted, StatusInterviewed},
		{StatusInterviewed, StatusHired},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransitionTo(tt.to) {
			t.Errorf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}

	denied := []struct {
		from, to ApplicationStatus
	}{
		{StatusPending, StatusHired},
		{StatusPending, StatusShortlisted},
		{StatusRejected, StatusUnderReview},
		{StatusHired, StatusRejected},
		{StatusWithdrawn, StatusUnderReview},
		{StatusUnderReview, StatusPending},
		{StatusUnderReview, StatusWithdrawn},
	}
	for _, tt := range denied {
		if tt.from.CanTransitionTo(tt.to) {
			t.Errorf("expected %s -> %s to be denied", tt.from, tt.to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	t.Parallel()

	for _, status := range []ApplicationStatus{StatusRejected, StatusHired, StatusWithdrawn} {
		if !status.Terminal() {
			t.Errorf("expected %s to be terminal", status)
		}
	}
	for _, status := range []ApplicationStatus{StatusPending, StatusUnderReview, StatusShortlisted, StatusInterviewed} {
		if status.Terminal() {
			t.Errorf("expected %s to be non-terminal", status)
		}
	}
}

func TestParseApplicationStatus(t *testing.T) {
	t.Parallel()

	status, err := ParseApplicationStatus(" under_review ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusUnderReview {
		t.Fatalf("expected UNDER_REVIEW, got %s", status)
	}

	if _, err := ParseApplicationStatus("bogus"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	if level, err := ParseExperienceLevel("senior"); err != nil || level != LevelSenior {
		t.Fatalf("expected SENIOR, got %v (%v)", level, err)
	}
	if typ, err := ParseEmploymentType("full_time"); err != nil || typ != FullTime {
		t.Fatalf("expected FULL_TIME, got %v (%v)", typ, err)
	}
	if _, err := ParseEmploymentType("gig"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if rec, err := ParseRecommendation("good_fit"); err != nil || rec != GoodFit {
		t.Fatalf("expected GOOD_FIT, got %v (%v)", rec, err)
	}
}
