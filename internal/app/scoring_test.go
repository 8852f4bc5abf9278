package app

import "testing"

func TestAnswerPointsBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		correct bool
		elapsed float64
		want    float64
	}{
		{"correct immediate", true, 0, 10},
		{"correct midway", true, 30, 5},
		{"correct at cutoff", true, 60, 0},
		{"correct past cutoff", true, 66, 0},
		{"incorrect immediate", false, 0, -3},
		{"incorrect midway", false, 30, -1.5},
		{"incorrect at cutoff", false, 60, 0},
		{"incorrect past cutoff", false, 61, 0},
	}
	for _, tc := range cases {
		if got := answerPoints(tc.correct, tc.elapsed); got != tc.want {
			t.Errorf("%s: answerPoints(%v, %v) = %v, want %v", tc.name, tc.correct, tc.elapsed, got, tc.want)
		}
	}
}

func TestCumulativeScoreRoundsEveryStep(t *testing.T) {
	// Two answers at e=40: raw 10-40/6 = 3.3333..., rounded to 3.33 each.
	// Summing raw values first and rounding once would give 6.67; rounding
	// at every accumulation step gives 6.66. The step-wise result is the
	// required behavior.
	points := answerPoints(true, 40)
	if points != 3.33 {
		t.Fatalf("expected 3.33 per answer, got %v", points)
	}
	total := 0.0
	total = round2(total + points)
	total = round2(total + points)
	if total != 6.66 {
		t.Fatalf("expected step-wise rounded total 6.66, got %v", total)
	}
	if once := round2(2 * (10 - 40.0/6)); once == total {
		t.Fatalf("step-wise rounding should differ from round-once (%v)", once)
	}
}

func TestRound2(t *testing.T) {
	if got := round2(9.876543); got != 9.88 {
		t.Fatalf("round2(9.876543) = %v, want 9.88", got)
	}
}
