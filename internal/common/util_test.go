package common

import "testing"

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Lengths(t *testing.T) {
	for _, n := range []int{12, 16, 32} {
		buf, err := GenerateRandByteArray(n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(buf) != n {
			t.Fatalf("expected length %d, got %d", n, len(buf))
		}
	}
}

func TestGenerateRandByteArray_Distinct(t *testing.T) {
	a, err := GenerateRandByteArray(16)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateRandByteArray(16)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) == string(b) {
		t.Fatalf("two 16-byte random arrays are identical")
	}
}
