package lazy

import (
	"fmt"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCellPublishesFirstValue(t *testing.T) {
	var c Cell[*int]
	first := 1
	second := 2
	got := c.Get(func() *int { return &first })
	again := c.Get(func() *int { return &second })
	if got != again {
		t.Fatalf("expected the published pointer to be stable, got %p and %p", got, again)
	}
	if *again != 1 {
		t.Fatalf("expected first value to win, got %d", *again)
	}
}

func TestCellPeek(t *testing.T) {
	var c Cell[string]
	if _, ok := c.Peek(); ok {
		t.Fatalf("empty cell must not report a value")
	}
	c.Get(func() string { return "x" })
	if v, ok := c.Peek(); !ok || v != "x" {
		t.Fatalf("unexpected peek result %q %v", v, ok)
	}
}

func TestCellConcurrentInitializersConverge(t *testing.T) {
	var c Cell[*int]
	var calls atomic.Int32
	results := make([]*int, 64)

	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			results[i] = c.Get(func() *int {
				calls.Add(1)
				v := i
				return &v
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("result %d differs from result 0", i)
		}
	}
	if calls.Load() < 1 {
		t.Fatalf("initializer never ran")
	}
}

func TestMapGetOrAddIdentity(t *testing.T) {
	type key struct{ name string }
	var m Map[*key, *string]
	k := &key{name: "a"}

	results := make([]*string, 32)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			results[i] = m.GetOrAdd(k, func(k *key) *string {
				s := fmt.Sprintf("%s-%d", k.name, i)
				return &s
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	for i := range results {
		if results[i] != results[0] {
			t.Fatalf("GetOrAdd returned different values for the same key")
		}
	}
	if m.Len() != 1 {
		t.Fatalf("expected one entry, got %d", m.Len())
	}
}

func TestStringMapShards(t *testing.T) {
	var m StringMap[int]
	for i := range 100 {
		key := fmt.Sprintf("k%d", i)
		if got := m.GetOrAdd(key, func(string) int { return i }); got != i {
			t.Fatalf("GetOrAdd(%s) = %d", key, got)
		}
	}
	if got := m.GetOrAdd("k5", func(string) int { return -1 }); got != 5 {
		t.Fatalf("existing key was overwritten: %d", got)
	}
	if m.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", m.Len())
	}
	if _, ok := m.Load("missing"); ok {
		t.Fatalf("unexpected entry")
	}
}
