package cc89

import "fmt"

// Arch selects the SysV target the front end lowers for.
type Arch int

const (
	ArchI386 Arch = iota
	ArchX86_64
)

func (a Arch) String() string {
	if a == ArchX86_64 {
		return "x86_64"
	}
	return "i386"
}

// Target is the static per-architecture record read by S and G. No size or
// alignment is ever hardcoded outside of this table (spec.md section 4.5).
type Target struct {
	Arch Arch

	PointerSize int // bytes
	SizeTWidth  int // bits

	ShortSize int
	IntSize   int
	LongSize  int
	LLongSize int

	FloatSize      int
	DoubleSize     int
	LongDoubleSize int
	LongDoubleAlign int

	DataLayout string
	Triple     string
}

// NewTarget builds the descriptor for arch. This is the only place in the
// front end that hardcodes SysV sizes.
func NewTarget(arch Arch) *Target {
	switch arch {
	case ArchI386:
		return &Target{
			Arch:            ArchI386,
			PointerSize:     4,
			SizeTWidth:      32,
			ShortSize:       2,
			IntSize:         4,
			LongSize:        4,
			LLongSize:       8,
			FloatSize:       4,
			DoubleSize:      8,
			LongDoubleSize:  12,
			LongDoubleAlign: 4,
			DataLayout:      "i8:8:8-i16:16:16-i32:32:32-i64:64:32-f32:32:32-f64:64:32-p32:32:32",
			Triple:          "i386-redhat-kfs",
		}
	case ArchX86_64:
		return &Target{
			Arch:            ArchX86_64,
			PointerSize:     8,
			SizeTWidth:      64,
			ShortSize:       2,
			IntSize:         4,
			LongSize:        8,
			LLongSize:       8,
			FloatSize:       4,
			DoubleSize:      8,
			LongDoubleSize:  16,
			LongDoubleAlign: 16,
			DataLayout:      "e-m:e-i64:64-f80:128-n8:16:32:64-S128",
			Triple:          "x86_64-pc-linux-gnu",
		}
	default:
		panic(fmt.Sprintf("cc89: unknown arch %v", arch))
	}
}

// LongIntSize returns the target's byte width of long. constfold.go does not
// call it; it takes widths from SizeOf.
func (t *Target) LongIntSize() int { return t.LongSize }
