package collabel

import "testing"

func TestToLetters(t *testing.T) {
	cases := map[int]string{
		0:   "A",
		1:   "B",
		25:  "Z",
		26:  "AA",
		27:  "AB",
		701: "ZZ",
		702: "AAA",
	}
	for idx, want := range cases {
		if got := ToLetters(idx); got != want {
			t.Errorf("ToLetters(%d) = %q, want %q", idx, got, want)
		}
	}
}

func TestToLettersLengthGrowsAtBoundaries(t *testing.T) {
	boundaries := []int{26, 702, 18278}
	for _, b := range boundaries {
		before := len(ToLetters(b - 1))
		after := len(ToLetters(b))
		if after != before+1 {
			t.Errorf("expected label length to grow by 1 at %d, got %d -> %d", b, before, after)
		}
	}
}

func TestToLettersBijection(t *testing.T) {
	seen := make(map[string]int)
	for i := 0; i < 5000; i++ {
		label := ToLetters(i)
		if prev, ok := seen[label]; ok {
			t.Fatalf("label %q produced by both %d and %d", label, prev, i)
		}
		seen[label] = i
		if back := ToIndex(label); back != i {
			t.Errorf("ToIndex(ToLetters(%d)) = %d, want %d", i, back, i)
		}
	}
}

func TestRange(t *testing.T) {
	got := Range(0, 3)
	want := []string{"A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("len mismatch: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Range[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRangeEmpty(t *testing.T) {
	if got := Range(5, 0); len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}
