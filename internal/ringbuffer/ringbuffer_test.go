package ringbuffer

import "testing"

func TestNewIsEmpty(t *testing.T) {
	rb := New(16)
	if !rb.IsEmpty() {
		t.Fatal("fresh ring buffer should be empty")
	}
	if rb.IsFull() {
		t.Fatal("fresh ring buffer should not be full")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	rb := New(16)
	in := []float32{1, 2, 3, 4, 5}
	if n := rb.Write(in); n != 5 {
		t.Fatalf("wrote %d, want 5", n)
	}
	out := make([]float32, 5)
	if n := rb.Read(out); n != 5 {
		t.Fatalf("read %d, want 5", n)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
	if !rb.IsEmpty() {
		t.Fatal("should be empty after full drain")
	}
}

func TestWraparound(t *testing.T) {
	rb := New(10)
	rb.Write([]float32{1, 1, 1, 1, 1, 1, 1, 1})
	out := make([]float32, 5)
	rb.Read(out)
	rb.Write([]float32{2, 2, 2, 2, 2})

	final := make([]float32, 8)
	n := rb.Read(final)
	if n != 8 {
		t.Fatalf("read %d, want 8", n)
	}
	want := []float32{1, 1, 1, 2, 2, 2, 2, 2}
	for i := range want {
		if final[i] != want[i] {
			t.Fatalf("final[%d] = %v, want %v", i, final[i], want[i])
		}
	}
}

func TestOverflow(t *testing.T) {
	rb := New(10)
	in := make([]float32, 20)
	for i := range in {
		in[i] = float32(i)
	}
	n := rb.Write(in)
	if n != 9 {
		t.Fatalf("wrote %d, want 9 (one slot reserved)", n)
	}
	if !rb.IsFull() {
		t.Fatal("should be full")
	}
	if n := rb.Write([]float32{99}); n != 0 {
		t.Fatalf("write into full buffer returned %d, want 0", n)
	}
}

func TestClear(t *testing.T) {
	rb := New(10)
	rb.Write([]float32{1, 2, 3})
	rb.Clear()
	if !rb.IsEmpty() {
		t.Fatal("should be empty after Clear")
	}
}

func TestAvailableInvariant(t *testing.T) {
	rb := New(8)
	rb.Write([]float32{1, 2, 3, 4})
	out := make([]float32, 2)
	rb.Read(out)
	if got, want := rb.Available(), 2; got != want {
		t.Fatalf("Available() = %d, want %d", got, want)
	}
}
