package osmem

import "testing"

func TestPageSize(t *testing.T) {
	if got := PageSize(); got == 0 {
		t.Fatal("page size must be non-zero")
	}
}

func TestHugepageSizeHasSaneDefault(t *testing.T) {
	got := HugepageSize()

	if got == 0 || got%PageSize() != 0 {
		t.Fatalf("hugepage size %d is not a sane multiple of page size %d", got, PageSize())
	}
}

func TestRoundUp(t *testing.T) {
	cases := []struct{ n, multiple, want int }{
		{0, 4096, 0},
		{1, 4096, 4096},
		{4096, 4096, 4096},
		{4097, 4096, 8192},
	}

	for _, c := range cases {
		if got := roundUp(c.n, c.multiple); got != c.want {
			t.Errorf("roundUp(%d, %d) = %d, want %d", c.n, c.multiple, got, c.want)
		}
	}
}

func TestVirtToPhysRejectsUnmappedAddress(t *testing.T) {
	// A near-zero virtual address is never mapped in a userspace process.
	if _, err := VirtToPhys(0x10); err == nil {
		t.Fatal("expected error translating an unmapped address")
	}
}
