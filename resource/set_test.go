package resource

import "testing"

type fakeResource struct {
	locks   int
	unlocks int
	drops   int
}

func (r *fakeResource) Lock()   { r.locks++ }
func (r *fakeResource) Unlock() { r.unlocks++ }
func (r *fakeResource) Drop()   { r.drops++ }

type dropOnly struct {
	drops int
}

func (d *dropOnly) Drop() { d.drops++ }

func TestSet_AddLocksImmediately(t *testing.T) {
	s := NewSet()
	r := &fakeResource{}
	d := &dropOnly{}
	s.Add(r)
	s.Add(d)

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	// The lock must be held before anything reads the resource, not at
	// some later activation point.
	if r.locks != 1 {
		t.Errorf("locks = %d, want 1", r.locks)
	}
	if r.unlocks != 0 {
		t.Errorf("unlocks = %d, want 0", r.unlocks)
	}

	s.Release()
	if r.unlocks != 1 || r.drops != 1 {
		t.Errorf("unlocks = %d, drops = %d, want 1, 1", r.unlocks, r.drops)
	}
	if d.drops != 1 {
		t.Errorf("dropOnly drops = %d, want 1", d.drops)
	}
	if s.Len() != 0 {
		t.Errorf("Len after release = %d, want 0", s.Len())
	}
}

func TestSet_ReleaseExactlyOnce(t *testing.T) {
	s := NewSet()
	r := &fakeResource{}
	s.Add(r)

	s.Release()
	s.Release()

	if r.unlocks != 1 || r.drops != 1 {
		t.Errorf("double release leaked: unlocks = %d, drops = %d", r.unlocks, r.drops)
	}
}

func TestSet_ReleaseBalancesEveryAdd(t *testing.T) {
	// A failed compile releases a partially filled set; every lock taken
	// by Add must be returned, including for a resource added twice.
	s := NewSet()
	r := &fakeResource{}
	s.Add(r)
	s.Add(r)

	s.Release()
	if r.locks != 2 || r.unlocks != 2 {
		t.Errorf("locks = %d, unlocks = %d, want 2, 2", r.locks, r.unlocks)
	}
}

func TestSet_AddNilIgnored(t *testing.T) {
	s := NewSet()
	s.Add(nil)
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestSet_AddAfterReleasePanics(t *testing.T) {
	s := NewSet()
	s.Release()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for Add after Release")
		}
	}()
	s.Add(&dropOnly{})
}
