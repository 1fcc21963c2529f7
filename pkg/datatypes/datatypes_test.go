package datatypes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromByteCoercesUnknownToWord(t *testing.T) {
	assert.Equal(t, Bool, FromByte(1))
	assert.Equal(t, Word, FromByte(2))
	assert.Equal(t, Dword, FromByte(3))
	assert.Equal(t, Float, FromByte(4))
	assert.Equal(t, Word, FromByte(0))
	assert.Equal(t, Word, FromByte(99))
}

func TestWordOrderContract(t *testing.T) {
	// S7: encode_dword(0xAABBCCDD) writes [0xCCDD, 0xAABB].
	regs := EncodeDword(0xAABBCCDD)
	require.Equal(t, []uint16{0xCCDD, 0xAABB}, regs)

	v, err := DecodeDword([]uint16{0xCCDD, 0xAABB})
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAABBCCDD), v)
}

func TestWriteFloatOneProducesZeroThreeF80(t *testing.T) {
	// S4: write_float(id, 200, 1.0f) -> write_multiple_registers(..., [0x0000, 0x3F80]).
	regs := EncodeFloat(1.0)
	assert.Equal(t, []uint16{0x0000, 0x3F80}, regs)
}

func TestDwordRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0xFFFFFFFF, 0x12345678, 0x80000000}
	for _, v := range cases {
		regs := EncodeDword(v)
		got, err := DecodeDword(regs)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	cases := []float32{0, 1, -1, 3.14159, float32(math.Inf(1)), float32(math.Inf(-1))}
	for _, v := range cases {
		regs := EncodeFloat(v)
		got, err := DecodeFloat(regs)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestFloatNaNPayloadPreserved(t *testing.T) {
	nan := math.Float32frombits(0x7fc00001)
	regs := EncodeFloat(nan)
	got, err := DecodeFloat(regs)
	require.NoError(t, err)
	assert.Equal(t, math.Float32bits(nan), math.Float32bits(got))
}

func TestDecodersFailOnShortFrame(t *testing.T) {
	_, err := DecodeWord(nil)
	assert.ErrorIs(t, err, ErrShortFrame)

	_, err = DecodeDword([]uint16{1})
	assert.ErrorIs(t, err, ErrShortFrame)

	_, err = DecodeFloat([]uint16{1})
	assert.ErrorIs(t, err, ErrShortFrame)

	_, err = DecodeBool(nil)
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestRegisterCount(t *testing.T) {
	assert.Equal(t, 1, Word.RegisterCount())
	assert.Equal(t, 2, Dword.RegisterCount())
	assert.Equal(t, 2, Float.RegisterCount())
	assert.Equal(t, 1, Bool.RegisterCount())
}
