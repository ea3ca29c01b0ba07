package match

import (
	"slices"
	"testing"
	"time"
)

func TestFindQualifyingRun(t *testing.T) {
	tests := []struct {
		name       string
		dates      []string
		minNights  int
		startDates []string
		want       []string
	}{
		{
			name:      "first run of two",
			dates:     []string{"2026-05-10", "2026-05-11", "2026-05-13"},
			minNights: 2,
			want:      []string{"2026-05-10", "2026-05-11"},
		},
		{
			name:      "run too short",
			dates:     []string{"2026-05-10", "2026-05-11"},
			minNights: 3,
		},
		{
			name:       "window must start on allowed date",
			dates:      []string{"2026-05-01", "2026-05-02", "2026-05-03"},
			minNights:  2,
			startDates: []string{"2026-05-02"},
			want:       []string{"2026-05-02", "2026-05-03"},
		},
		{
			name:       "allowed date too close to end of run",
			dates:      []string{"2026-05-01", "2026-05-02", "2026-05-03"},
			minNights:  2,
			startDates: []string{"2026-05-03"},
		},
		{
			name:      "second run qualifies",
			dates:     []string{"2026-05-01", "2026-05-03", "2026-05-04", "2026-05-05"},
			minNights: 3,
			want:      []string{"2026-05-03", "2026-05-04", "2026-05-05"},
		},
		{
			name:      "crosses month boundary",
			dates:     []string{"2026-05-31", "2026-06-01"},
			minNights: 2,
			want:      []string{"2026-05-31", "2026-06-01"},
		},
		{
			name:      "crosses leap day",
			dates:     []string{"2028-02-28", "2028-02-29", "2028-03-01"},
			minNights: 3,
			want:      []string{"2028-02-28", "2028-02-29", "2028-03-01"},
		},
		{
			name:      "zero nights treated as one",
			dates:     []string{"2026-05-07"},
			minNights: 0,
			want:      []string{"2026-05-07"},
		},
		{
			name:      "empty input",
			minNights: 1,
		},
		{
			name:       "start date in later run",
			dates:      []string{"2026-07-01", "2026-07-02", "2026-07-10", "2026-07-11"},
			minNights:  2,
			startDates: []string{"2026-07-10", "2026-08-01"},
			want:       []string{"2026-07-10", "2026-07-11"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindQualifyingRun(tt.dates, tt.minNights, tt.startDates)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFindQualifyingRunProperties(t *testing.T) {
	// May 2026 with every third day booked.
	var dates []string
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 31; i++ {
		if i%3 != 2 {
			dates = append(dates, day.Format(dateLayout))
		}
		day = day.AddDate(0, 0, 1)
	}

	for n := 1; n <= 3; n++ {
		run := FindQualifyingRun(dates, n, nil)
		if n == 3 {
			if run != nil {
				t.Fatalf("expected no run of 3, got %v", run)
			}
			continue
		}
		if len(run) != n {
			t.Fatalf("expected run of %d, got %v", n, run)
		}
		for i := 1; i < len(run); i++ {
			if !nextDay(run[i-1], run[i]) {
				t.Errorf("run %v is not consecutive at %d", run, i)
			}
		}
		if run[0] != dates[0] {
			t.Errorf("expected earliest run to start on %s, got %s", dates[0], run[0])
		}
	}
}

func TestFindQualifyingRunDoesNotAliasInput(t *testing.T) {
	dates := []string{"2026-05-10", "2026-05-11"}
	run := FindQualifyingRun(dates, 2, nil)
	run[0] = "changed"
	if dates[0] != "2026-05-10" {
		t.Errorf("expected input to be untouched, got %v", dates)
	}
}
