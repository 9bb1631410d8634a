package page

import (
	"testing"

	"github.com/cottontaildb/cottontail/pkg/primitives"
)

func TestFileHeaderRoundTrip(t *testing.T) {
	h := NewFileHeader(KindColumn)
	h.TotalPages = 42
	h.FreedPages = 3
	h.Checksum = 0xdeadbeef
	h.LastWALMillis = 1234567890
	h.MarkInUse()

	decoded, err := DecodeFileHeader(h.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Kind != KindColumn {
		t.Errorf("Kind = %v, want %v", decoded.Kind, KindColumn)
	}
	if decoded.TotalPages != 42 {
		t.Errorf("TotalPages = %d, want 42", decoded.TotalPages)
	}
	if decoded.FreedPages != 3 {
		t.Errorf("FreedPages = %d, want 3", decoded.FreedPages)
	}
	if decoded.Checksum != 0xdeadbeef {
		t.Errorf("Checksum = %x, want deadbeef", decoded.Checksum)
	}
	if !decoded.IsInUse() {
		t.Error("expected sanity flag in-use after MarkInUse")
	}
}

func TestFileHeaderMarkClean(t *testing.T) {
	h := NewFileHeader(KindEntityHeader)
	h.MarkInUse()
	h.MarkClean()

	decoded, err := DecodeFileHeader(h.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.IsInUse() {
		t.Error("expected sanity flag clean after MarkClean")
	}
}

func TestDecodeFileHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, Size)
	copy(buf[0:4], "NOPE")
	if _, err := DecodeFileHeader(buf); err == nil {
		t.Fatal("expected error for bad identifier")
	}
}

func TestDecodeFileHeaderRejectsWrongSize(t *testing.T) {
	if _, err := DecodeFileHeader(make([]byte, Size-1)); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestChecksumPagesDeterministic(t *testing.T) {
	a := make([]byte, Size)
	b := make([]byte, Size)
	b[0] = 1

	c1 := ChecksumPages([][]byte{a, b})
	c2 := ChecksumPages([][]byte{a, b})
	if c1 != c2 {
		t.Fatalf("checksum not deterministic: %x vs %x", c1, c2)
	}

	c3 := ChecksumPages([][]byte{a, a})
	if c1 == c3 {
		t.Fatal("expected different page contents to checksum differently")
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(primitives.PageID(3)); got != 3*Size {
		t.Errorf("Offset(3) = %d, want %d", got, 3*Size)
	}
}

func TestInBounds(t *testing.T) {
	h := NewFileHeader(KindColumn)
	h.TotalPages = 5

	if !InBounds(primitives.PageID(1), h) {
		t.Error("page 1 should be in bounds for a 5-page file")
	}
	if InBounds(primitives.PageID(5), h) {
		t.Error("page 5 should be out of bounds for a 5-page file (0..4 valid)")
	}
	if InBounds(primitives.PageID(0), h) {
		t.Error("page 0 (header) should never be a valid data page id")
	}
}
