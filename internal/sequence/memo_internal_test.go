package sequence

import "testing"

func TestMemoFieldsAreWriteOnce(t *testing.T) {
	b := &Bucket{Dir: "/plates", Identifier: "a.####.exr", Files: []string{"a.0001.exr"}}

	b.recordFirst("", 0)
	b.recordFirst("01:00:00:00", 24)
	if tc, ok := b.TimecodeIn(); ok || tc != "" {
		t.Fatalf("absent timecode was overwritten: %q", tc)
	}
	if _, ok := b.FrameRate(); ok {
		t.Fatal("absent rate was overwritten")
	}

	b.recordLast("01:00:00:09")
	b.recordLast("02:00:00:00")
	if tc, _ := b.TimecodeOut(); tc != "01:00:00:09" {
		t.Fatalf("timecode out = %q", tc)
	}
	if memo := b.Memo(); !memo.FirstProbed || !memo.LastProbed {
		t.Fatalf("unexpected memo %+v", memo)
	}
}

func TestSplitFrame(t *testing.T) {
	prefix, digits, suffix, ok := splitFrame("shotA_v002.01001.exr")
	if !ok || prefix != "shotA_v002." || digits != "01001" || suffix != ".exr" {
		t.Fatalf("splitFrame = %q %q %q %v", prefix, digits, suffix, ok)
	}
}
