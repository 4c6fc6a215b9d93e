package chat

import "testing"

func TestConnManagerRegisterEvicts(t *testing.T) {
	m := NewConnManager("gw-test")

	c1 := NewClient("c1", nil, 4)
	c2 := NewClient("c2", nil, 4)

	if old := m.Register("u1", c1); old != nil {
		t.Fatalf("first register returned evicted conn %v", old.ConnID)
	}
	if old := m.Register("u1", c2); old != c1 {
		t.Fatal("second register for the same user must evict the first conn")
	}
	if cur, ok := m.Get("u1"); !ok || cur != c2 {
		t.Fatal("registry should now hold c2")
	}
	// Re-registering the current conn is a no-op.
	if old := m.Register("u1", c2); old != nil {
		t.Fatal("re-register of the live conn must not self-evict")
	}
}

func TestConnManagerRemoveGuardsStale(t *testing.T) {
	m := NewConnManager("gw-test")

	c1 := NewClient("c1", nil, 4)
	c2 := NewClient("c2", nil, 4)
	m.Register("u1", c1)
	m.Register("u1", c2)

	// The evicted conn's cleanup must not unbind its replacement.
	m.Remove("u1", c1)
	if cur, ok := m.Get("u1"); !ok || cur != c2 {
		t.Fatal("stale remove unbound the live conn")
	}

	m.Remove("u1", c2)
	if _, ok := m.Get("u1"); ok {
		t.Fatal("live conn should be unbound after its own remove")
	}
	if m.Count() != 0 {
		t.Fatalf("Count = %d, want 0", m.Count())
	}
}

func TestClientPushAfterClose(t *testing.T) {
	c := NewClient("c1", nil, 1)
	if !c.Push([]byte("x")) {
		t.Fatal("push into empty queue should succeed")
	}
	if c.Push([]byte("y")) {
		t.Fatal("push into full queue should report false")
	}
	c.Close()
	c.Close() // double close must not panic
	if c.Push([]byte("z")) {
		t.Fatal("push after close should report false")
	}
}
