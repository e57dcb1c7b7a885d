package contentdiff

import "testing"

func TestProgressMeterTick(t *testing.T) {
	m := NewProgressMeter(200, 10)

	var reported []int
	for i := 1; i <= 200; i++ {
		if percent, crossed := m.Tick(i); crossed {
			reported = append(reported, percent)
		}
	}

	want := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if len(reported) != len(want) {
		t.Fatalf("reported %v, want %v", reported, want)
	}
	for i := range want {
		if reported[i] != want[i] {
			t.Errorf("report %d = %d, want %d", i, reported[i], want[i])
		}
	}
}

func TestProgressMeterSmallTotal(t *testing.T) {
	m := NewProgressMeter(3, 10)

	var reported []int
	for i := 1; i <= 3; i++ {
		if percent, crossed := m.Tick(i); crossed {
			reported = append(reported, percent)
		}
	}
	// 1/3 and 2/3 land inside step buckets; only completion reports.
	if len(reported) == 0 || reported[len(reported)-1] != 100 {
		t.Errorf("reported %v, want final 100", reported)
	}
}

func TestProgressMeterZeroTotal(t *testing.T) {
	m := NewProgressMeter(0, 10)
	if _, crossed := m.Tick(1); crossed {
		t.Error("Tick() crossed = true for zero total, want false")
	}
}
