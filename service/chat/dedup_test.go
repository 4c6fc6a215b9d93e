package chat

import (
	"fmt"
	"testing"
)

func TestProcessedSetSeenMark(t *testing.T) {
	p := NewProcessedSet(8)
	if p.Seen("m1") {
		t.Fatal("fresh id reported as seen")
	}
	p.Mark("m1")
	if !p.Seen("m1") {
		t.Fatal("marked id not reported as seen")
	}
}

func TestProcessedSetEvictsOldest(t *testing.T) {
	p := NewProcessedSet(4)
	for i := 0; i < 8; i++ {
		p.Mark(fmt.Sprintf("m%d", i))
	}
	if p.Len() != 4 {
		t.Fatalf("Len = %d, want capacity 4", p.Len())
	}
	if p.Seen("m0") {
		t.Fatal("oldest entry should have been evicted")
	}
	if !p.Seen("m7") {
		t.Fatal("newest entry should still be present")
	}
}
