package engine

import "testing"

const testRate = 16000

func TestPlanWindowsSingleWindow(t *testing.T) {
	// Shorter than one window: one window covering everything.
	windows := planWindows(60*testRate, testRate)
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if windows[0].start != 0 || windows[0].end != 60*testRate {
		t.Errorf("window = [%d, %d), want [0, %d)", windows[0].start, windows[0].end, 60*testRate)
	}
}

func TestPlanWindowsOverlap(t *testing.T) {
	windows := planWindows(225*testRate, testRate)
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}

	w0, w1 := windows[0], windows[1]
	if w0.start != 0 || w0.end != 120*testRate {
		t.Errorf("window 0 = [%d, %d), want [0, %d)", w0.start, w0.end, 120*testRate)
	}
	if w1.start != 105*testRate || w1.end != 225*testRate {
		t.Errorf("window 1 = [%d, %d), want [%d, %d)", w1.start, w1.end, 105*testRate, 225*testRate)
	}

	overlap := w0.end - w1.start
	if overlap != chunkOverlapSeconds*testRate {
		t.Errorf("overlap = %d samples, want %d", overlap, chunkOverlapSeconds*testRate)
	}
	if w1.offsetSeconds != 105 {
		t.Errorf("window 1 offset = %g s, want 105", w1.offsetSeconds)
	}
}

func TestPlanWindowsCount(t *testing.T) {
	cases := []struct {
		seconds int
		want    int
	}{
		{120, 1},
		{181, 2},
		{225, 2},
		{226, 3},
		{300, 3},
		{600, 6},
	}
	for _, c := range cases {
		got := planWindows(c.seconds*testRate, testRate)
		if len(got) != c.want {
			t.Errorf("planWindows(%ds) = %d windows, want %d", c.seconds, len(got), c.want)
		}
	}
}

func TestPlanWindowsCoversAllSamples(t *testing.T) {
	total := 1000*testRate + 37 // not on a window boundary
	windows := planWindows(total, testRate)

	if windows[0].start != 0 {
		t.Errorf("first window starts at %d, want 0", windows[0].start)
	}
	if last := windows[len(windows)-1]; last.end != total {
		t.Errorf("last window ends at %d, want %d", last.end, total)
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].start >= windows[i-1].end {
			t.Errorf("gap between window %d and %d", i-1, i)
		}
	}
}
