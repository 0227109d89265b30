package specval

import (
	"math/big"
	"testing"
)

func TestFindSmallestPrefersUnsigned(t *testing.T) {
	got, ok := FindSmallest(big.NewInt(0), big.NewInt(200), 0)
	if !ok || got != U8 {
		t.Fatalf("expected u8, got %v (ok=%v)", got, ok)
	}
}

func TestFindSmallestSignedWhenNegative(t *testing.T) {
	got, ok := FindSmallest(big.NewInt(-5), big.NewInt(10), 0)
	if !ok || got != I8 {
		t.Fatalf("expected i8, got %v (ok=%v)", got, ok)
	}
}

func TestFindSmallestRespectsMinimumWidth(t *testing.T) {
	got, ok := FindSmallest(big.NewInt(0), big.NewInt(1), 24)
	if !ok || got != U32 {
		t.Fatalf("expected u32 due to size_bits floor, got %v (ok=%v)", got, ok)
	}
}

func TestFindSmallestFailsBeyond64Bits(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 65)

	_, ok := FindSmallest(big.NewInt(0), huge, 0)
	if ok {
		t.Fatalf("expected no integer type to cover a 65-bit range")
	}
}

func TestBitsRequiredUnsigned(t *testing.T) {
	if got := U32.BitsRequired(big.NewInt(0), big.NewInt(255)); got != 8 {
		t.Fatalf("expected 8 bits, got %d", got)
	}
}

func TestBitsRequiredSigned(t *testing.T) {
	if got := I32.BitsRequired(big.NewInt(-1), big.NewInt(0)); got != 1 {
		t.Fatalf("expected 1 bit for [-1,0], got %d", got)
	}

	if got := I32.BitsRequired(big.NewInt(-128), big.NewInt(127)); got != 8 {
		t.Fatalf("expected 8 bits for [-128,127], got %d", got)
	}
}

func TestResetValueToBytesLittleEndian(t *testing.T) {
	r := NewResetInteger(big.NewInt(0x1234))

	b, ok := r.ToBytes(4, LE)
	if !ok {
		t.Fatalf("expected conversion to succeed")
	}

	want := []byte{0x34, 0x12, 0x00, 0x00}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d: got %x want %x", i, b[i], want[i])
		}
	}
}

func TestResetValueToBytesOverflow(t *testing.T) {
	r := NewResetInteger(big.NewInt(0x1_0000))

	if _, ok := r.ToBytes(1, LE); ok {
		t.Fatalf("expected overflow to be rejected")
	}
}
