package tokenizer

import (
	"encoding/binary"
	"runtime"

	"golang.org/x/sys/cpu"
)

// The fast path processes the buffer a machine word at a time: case folding
// uses branch-free byte-parallel arithmetic, and word-run scanning consumes
// unrolled 8-byte blocks. It is only activated when the CPU advertises the
// vector extensions the engine's contract names (AVX2, SSE4.2, or ASIMD),
// and it must produce exactly the same token stream as the scalar path.

// foldBlockSize is the minimum input length for the wide fold; shorter
// inputs go through the scalar loop, as does the tail remainder.
const foldBlockSize = 16

const (
	wordSize = 8

	hiBits = 0x8080808080808080
	// Per-byte offsets that push 'A' and 'Z'+1 across the high bit.
	geA = 0x3f3f3f3f3f3f3f3f // 0x80 - 'A'
	gtZ = 0x2525252525252525 // 0x80 - ('Z'+1)
)

func fastPathSupported() bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return cpu.X86.HasAVX2 || cpu.X86.HasSSE42
	case "arm64":
		return cpu.ARM64.HasASIMD
	default:
		return false
	}
}

// foldASCIIWide lowercases A-Z in place, eight bytes per step, leaving all
// other bytes (including non-ASCII) untouched. The tail shorter than one
// word falls back to the scalar fold.
func foldASCIIWide(buf []byte) {
	n := len(buf)
	i := 0
	for ; i+wordSize <= n; i += wordSize {
		v := binary.LittleEndian.Uint64(buf[i:])
		binary.LittleEndian.PutUint64(buf[i:], foldWord(v))
	}
	foldASCII(buf[i:])
}

// foldWord sets bit 0x20 on every byte of v that holds an ASCII uppercase
// letter. High-bit bytes are masked out up front so the byte-parallel adds
// cannot misclassify them or carry across byte lanes.
func foldWord(v uint64) uint64 {
	low := v &^ hiBits
	isUpper := (low + geA) & ^(low + gtZ) & hiBits & ^v
	return v | (isUpper >> 2)
}

// scanWordRunWide returns the index just past the word-byte run starting at
// start, consuming unrolled 8-byte blocks while the run continues.
func scanWordRunWide(buf []byte, start int) int {
	i := start
	for i+wordSize <= len(buf) {
		if !isWordByte(buf[i]) || !isWordByte(buf[i+1]) ||
			!isWordByte(buf[i+2]) || !isWordByte(buf[i+3]) ||
			!isWordByte(buf[i+4]) || !isWordByte(buf[i+5]) ||
			!isWordByte(buf[i+6]) || !isWordByte(buf[i+7]) {
			break
		}
		i += wordSize
	}
	for i < len(buf) && isWordByte(buf[i]) {
		i++
	}
	return i
}
