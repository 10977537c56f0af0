package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, 3, Coalesce(0, 3))
	assert.Equal(t, 0, Coalesce[int]())
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))

	b := SliceToBytes([]uint32{1, 2})
	assert.Len(t, b, 8)
	assert.Equal(t, uint32(2), binary.NativeEndian.Uint32(b[4:]))

	f := SliceToBytes([]float32{1.5})
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.NativeEndian.Uint32(f)))
}

func TestKeyCodesArePrintableASCII(t *testing.T) {
	assert.Equal(t, 'P', rune(KeyP))
	assert.Equal(t, 'R', rune(KeyR))
	assert.Equal(t, ' ', rune(KeySpace))
}
