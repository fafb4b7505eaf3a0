// SPDX-License-Identifier: Unlicense OR MIT

package pool

import (
	"errors"
	"testing"
)

type testKey struct {
	index uint32
	epoch uint32
}

func (testKey) FromParts(index, epoch uint32) testKey {
	return testKey{index: index, epoch: epoch}
}

func (k testKey) Index() uint32 { return k.index }
func (k testKey) Epoch() uint32 { return k.epoch }

func TestSlotMapInsertGetRemove(t *testing.T) {
	m := NewSlotMap[testKey, string](4, "")
	k, err := m.Insert("a")
	if err != nil {
		t.Fatal(err)
	}
	if (k == testKey{}) {
		t.Fatal("Insert returned the zero key")
	}
	if v, ok := m.Get(k); !ok || *v != "a" {
		t.Fatalf("Get = %v, %v", v, ok)
	}
	if got, ok := m.Remove(k); !ok || got != "a" {
		t.Fatalf("Remove = %q, %v", got, ok)
	}
	if _, ok := m.Get(k); ok {
		t.Error("Get succeeded with a stale key")
	}
}

func TestSlotMapZeroKeyDefault(t *testing.T) {
	m := NewSlotMap[testKey, int](2, 42)
	if v, ok := m.Get(testKey{}); !ok || *v != 42 {
		t.Fatalf("zero key = %v, %v, want the default", v, ok)
	}
	// Any epoch resolves at index 0.
	if v, ok := m.Get(testKey{index: 0, epoch: 7}); !ok || *v != 42 {
		t.Fatalf("index 0 with nonzero epoch = %v, %v", v, ok)
	}
	if _, ok := m.Remove(testKey{}); ok {
		t.Error("default removed")
	}
	if v, ok := m.Get(testKey{}); !ok || *v != 42 {
		t.Fatalf("default gone after Remove attempt: %v, %v", v, ok)
	}
	if _, err := m.Insert(1); err != nil {
		t.Fatal(err)
	}
	var got []int
	m.Range(func(_ testKey, v *int) bool {
		got = append(got, *v)
		return true
	})
	if len(got) != 2 || got[0] != 42 || got[1] != 1 {
		t.Errorf("Range visited %v, want [42 1]", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1 (default not counted)", m.Len())
	}
}

func TestSlotMapFull(t *testing.T) {
	m := NewSlotMap[testKey, int](2, 0)
	for i := 0; i < 2; i++ {
		if _, err := m.Insert(i); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.Insert(3); !errors.Is(err, ErrSlotMapFull) {
		t.Fatalf("got %v, want ErrSlotMapFull", err)
	}
}

func TestSlotMapEpochReuse(t *testing.T) {
	m := NewSlotMap[testKey, int](1, 0)
	k1, err := m.Insert(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Remove(k1); !ok {
		t.Fatal("Remove failed")
	}
	k2, err := m.Insert(2)
	if err != nil {
		t.Fatal(err)
	}
	if k2.Index() != k1.Index() {
		t.Fatalf("slot not reused: %d != %d", k2.Index(), k1.Index())
	}
	if k2.Epoch() == k1.Epoch() {
		t.Error("epoch not bumped on reuse")
	}
	if _, ok := m.Get(k1); ok {
		t.Error("stale key resolved to the new value")
	}
}

func TestSlotMapEpochRetire(t *testing.T) {
	m := NewSlotMap[testKey, int](1, 0)
	k, err := m.Insert(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Remove(k); !ok {
		t.Fatal("Remove failed")
	}
	m.slots[k.Index()].epoch = ^uint32(0)
	k, err = m.Insert(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Remove(k); !ok {
		t.Fatal("Remove failed")
	}
	if _, err := m.Insert(3); !errors.Is(err, ErrSlotMapFull) {
		t.Fatalf("got %v, want ErrSlotMapFull after retirement", err)
	}
}
