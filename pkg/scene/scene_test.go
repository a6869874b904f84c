package scene

import (
	"strings"
	"sync"
	"testing"

	"github.com/imacul/sculpt/pkg/mesh"
)

func TestAddAndGet(t *testing.T) {
	r := NewRegistry()
	m := mesh.Icosphere(1, 1)
	obj, err := r.Add("ball", m)
	if err != nil {
		t.Fatal(err)
	}
	if obj.Version != 1 {
		t.Fatalf("new object version = %d, want 1", obj.Version)
	}
	if got := r.Get("ball"); got != obj || got.Mesh != m {
		t.Fatal("Get did not return the registered object")
	}
	if r.Get("missing") != nil {
		t.Fatal("Get returned an object for an unknown name")
	}
}

func TestAddDuplicateName(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Add("ball", mesh.Icosphere(1, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add("ball", mesh.Icosphere(2, 1)); err == nil {
		t.Fatal("expected an error re-adding an existing name")
	}
}

func TestSwapBumpsVersion(t *testing.T) {
	r := NewRegistry()
	r.Add("ball", mesh.Icosphere(1, 1))

	next := mesh.Icosphere(1, 2)
	obj, err := r.Swap("ball", next, 1)
	if err != nil {
		t.Fatal(err)
	}
	if obj.Version != 2 {
		t.Fatalf("version after swap = %d, want 2", obj.Version)
	}
	if obj.Mesh != next {
		t.Fatal("swap did not install the new mesh")
	}
}

func TestSwapStaleVersionRejected(t *testing.T) {
	r := NewRegistry()
	r.Add("ball", mesh.Icosphere(1, 1))
	current := r.Get("ball").Mesh

	if _, err := r.Swap("ball", mesh.Icosphere(1, 2), 1); err != nil {
		t.Fatal(err)
	}
	_, err := r.Swap("ball", mesh.Icosphere(1, 3), 1)
	if err == nil {
		t.Fatal("expected a stale update to be rejected")
	}
	if !strings.Contains(err.Error(), "stale") {
		t.Fatalf("error %q does not mention staleness", err)
	}
	obj := r.Get("ball")
	if obj.Version != 2 {
		t.Fatalf("rejected swap changed the version to %d", obj.Version)
	}
	if obj.Mesh == current {
		t.Fatal("first swap did not take effect")
	}
}

func TestSwapUnknownName(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Swap("ghost", mesh.Icosphere(1, 1), 1); err == nil {
		t.Fatal("expected an error swapping an unknown object")
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	r.Add("ball", mesh.Icosphere(1, 1))
	r.Remove("ball")
	if r.Get("ball") != nil {
		t.Fatal("object survived removal")
	}
	r.Remove("ball") // absent, must not panic
}

func TestNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		r.Add(name, mesh.Icosphere(1, 0))
	}
	names := r.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("names = %v, want [a b c]", names)
	}
	if r.Len() != 3 {
		t.Fatalf("len = %d, want 3", r.Len())
	}
}

func TestConcurrentSwapsSerialize(t *testing.T) {
	r := NewRegistry()
	r.Add("ball", mesh.Icosphere(1, 0))

	const workers = 8
	var wg sync.WaitGroup
	wins := make([]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				obj := r.Get("ball")
				if _, err := r.Swap("ball", obj.Mesh, obj.Version); err == nil {
					wins[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, n := range wins {
		total += n
	}
	if got := r.Get("ball").Version; got != uint64(total)+1 {
		t.Fatalf("version %d does not match %d successful swaps", got, total)
	}
}
