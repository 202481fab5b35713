package scanner

import "testing"

func TestProgress(t *testing.T) {
	tests := []struct {
		name             string
		now, start, end  int64
		want             float64
	}{
		{"before start", 900, 1000, 2000, 0},
		{"at start", 1000, 1000, 2000, 0},
		{"midway", 1500, 1000, 2000, 0.5},
		{"at end", 2000, 1000, 2000, 1},
		{"after end", 2500, 1000, 2000, 1},
		{"zero-length window before", 500, 1000, 1000, 0},
		{"zero-length window at", 1000, 1000, 1000, 1},
		{"zero-length window after", 1500, 1000, 1000, 1},
		{"inverted window before start", 500, 1000, 900, 0},
		{"inverted window after start", 1200, 1000, 900, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Progress(tt.now, tt.start, tt.end)
			if got != tt.want {
				t.Errorf("Progress(%d, %d, %d) = %v, want %v", tt.now, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	tests := []struct {
		name     string
		now, end int64
		want     int64
	}{
		{"future end", 1000, 4000, 3000},
		{"at end", 4000, 4000, 0},
		{"past end", 5000, 4000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeRemaining(tt.now, tt.end)
			if got != tt.want {
				t.Errorf("TimeRemaining(%d, %d) = %d, want %d", tt.now, tt.end, got, tt.want)
			}
		})
	}
}
