package decode

import (
	"encoding/json"
	"testing"
)

type sample struct {
	Name  string         `json:"name"`
	Count int            `json:"count"`
	Meta  map[string]any `json:"meta"`
}

func TestDecodeMapJSONTags(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal([]byte(`{"name":"x","count":7,"meta":{"k":"v"}}`), &m); err != nil {
		t.Fatal(err)
	}

	got, err := DecodeMap[sample](m)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "x" || got.Count != 7 || got.Meta["k"] != "v" {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestDecodeMapWeakNumbers(t *testing.T) {
	// JSON numbers arrive as float64; the hook lands them in int fields.
	got, err := DecodeMap[sample](map[string]any{"count": float64(42)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Count != 42 {
		t.Fatalf("Count = %d", got.Count)
	}
}

func TestDecodeMapNil(t *testing.T) {
	if _, err := DecodeMap[sample](nil); err == nil {
		t.Fatal("nil map should be rejected")
	}
}
