package sortkey

import (
	"fmt"
	"reflect"
	"regexp"
	"testing"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		tags     string
		wantHSK  int
		wantFreq int
	}{
		{"hsk:2;freq:top1k", 2, 1},
		{"hsk:7;freq:rare", 7, 90},
		{"freq:top10k", 99, 10},
		{"hsk:4", 4, 99},
		{"", 99, 99},
		{"hsk:bad;freq:unknown", 99, 99},
		{" hsk:3 ; freq:top5k ", 3, 5},
	}
	for _, tt := range tests {
		hsk, freq := ParseTags(tt.tags)
		if hsk != tt.wantHSK || freq != tt.wantFreq {
			t.Errorf("ParseTags(%q) = (%d, %d), want (%d, %d)", tt.tags, hsk, freq, tt.wantHSK, tt.wantFreq)
		}
	}
}

func TestGenerate_Format(t *testing.T) {
	g := NewGenerator(1)
	keyRe := regexp.MustCompile(`^\d{8}$`)

	for i := 0; i < 100; i++ {
		key := g.Generate("hsk:2;freq:top1k")
		if !keyRe.MatchString(key) {
			t.Fatalf("Generate() = %q, want 8 digits", key)
		}
		if key[:4] != "0201" {
			t.Errorf("Generate() = %q, want prefix 0201", key)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := NewGenerator(42)
	b := NewGenerator(42)
	for i := 0; i < 10; i++ {
		if ka, kb := a.Generate("hsk:3;freq:top3k"), b.Generate("hsk:3;freq:top3k"); ka != kb {
			t.Fatalf("same seed produced %q vs %q", ka, kb)
		}
	}
}

func TestDeduplicate_NoCollisions(t *testing.T) {
	keys := []string{"02010001", "02010002", "03050100"}
	resolved, changed, err := Deduplicate(keys)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if !reflect.DeepEqual(resolved, keys) {
		t.Errorf("resolved = %v, want input unchanged", resolved)
	}
	if len(changed) != 0 {
		t.Errorf("changed = %v, want none", changed)
	}
}

func TestDeduplicate_SimpleCollision(t *testing.T) {
	keys := []string{"02010005", "02010005", "02010005"}
	resolved, changed, err := Deduplicate(keys)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}

	if resolved[0] != "02010005" {
		t.Errorf("first occurrence must keep its key, got %q", resolved[0])
	}
	if resolved[1] != "02010006" || resolved[2] != "02010007" {
		t.Errorf("probing should walk forward: got %v", resolved)
	}
	if !reflect.DeepEqual(changed, []int{1, 2}) {
		t.Errorf("changed = %v, want [1 2]", changed)
	}
}

func TestDeduplicate_ProbeSkipsOccupied(t *testing.T) {
	// 02010006 is already taken elsewhere in the batch, so the duplicate
	// must land on 02010007.
	keys := []string{"02010005", "02010006", "02010005"}
	resolved, _, err := Deduplicate(keys)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if resolved[2] != "02010007" {
		t.Errorf("resolved[2] = %q, want 02010007", resolved[2])
	}
}

func TestDeduplicate_WrapsRandomSpace(t *testing.T) {
	keys := []string{"02019999", "02019999"}
	resolved, _, err := Deduplicate(keys)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if resolved[1] != "02010000" {
		t.Errorf("resolved[1] = %q, want wraparound to 02010000", resolved[1])
	}
}

func TestDeduplicate_ProbeAllowancePerNote(t *testing.T) {
	// Two long occupied stretches: each duplicate gets the full probe limit
	// on its own, so neither escalates out of bucket 0201 even though the
	// stretches together exceed the limit.
	keys := []string{"02010000", "02010000", "02010000"}
	for i := 1; i <= 600; i++ {
		keys = append(keys, fmt.Sprintf("0201%04d", i))
	}
	for i := 602; i <= 1202; i++ {
		keys = append(keys, fmt.Sprintf("0201%04d", i))
	}

	resolved, _, err := Deduplicate(keys)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if resolved[1] != "02010601" {
		t.Errorf("resolved[1] = %q, want 02010601", resolved[1])
	}
	if resolved[2] != "02011203" {
		t.Errorf("resolved[2] = %q, want 02011203", resolved[2])
	}
}

func TestDeduplicate_NoDuplicatesRemain(t *testing.T) {
	// Large batch with heavy collision pressure.
	keys := make([]string, 0, 600)
	for i := 0; i < 600; i++ {
		keys = append(keys, fmt.Sprintf("0201%04d", i%50))
	}
	resolved, changed, err := Deduplicate(keys)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}

	seen := make(map[string]bool, len(resolved))
	for _, k := range resolved {
		if seen[k] {
			t.Fatalf("duplicate key %q survived deduplication", k)
		}
		seen[k] = true
	}
	if len(changed) != 550 {
		t.Errorf("len(changed) = %d, want 550", len(changed))
	}
}

func TestDeduplicate_Deterministic(t *testing.T) {
	keys := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		keys = append(keys, fmt.Sprintf("0403%04d", i%20))
	}
	first, _, err := Deduplicate(keys)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Deduplicate(keys)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Deduplicate() must be deterministic for identical input")
	}
}

func TestDeduplicate_BucketOverflow(t *testing.T) {
	// Fill bucket 0201 completely, then collide once more: the duplicate has
	// to overflow into bucket 0202.
	keys := make([]string, 0, 10001)
	for i := 0; i < 10000; i++ {
		keys = append(keys, fmt.Sprintf("0201%04d", i))
	}
	keys = append(keys, "02010000")

	resolved, changed, err := Deduplicate(keys)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if len(changed) != 1 {
		t.Fatalf("len(changed) = %d, want 1", len(changed))
	}
	last := resolved[len(resolved)-1]
	if last[:4] != "0202" {
		t.Errorf("overflow key = %q, want bucket 0202", last)
	}
}

func TestDeduplicate_Saturation(t *testing.T) {
	// Every bucket from freq 99 onward is full, so there is nowhere to go.
	keys := make([]string, 0, 10001)
	for i := 0; i < 10000; i++ {
		keys = append(keys, fmt.Sprintf("0299%04d", i))
	}
	keys = append(keys, "02990000")

	_, _, err := Deduplicate(keys)
	if err == nil {
		t.Fatal("Deduplicate() should error when all buckets are saturated")
	}
}

func TestDeduplicate_Malformed(t *testing.T) {
	if _, _, err := Deduplicate([]string{"bad", "bad"}); err == nil {
		t.Error("Deduplicate() should reject malformed keys")
	}
}
