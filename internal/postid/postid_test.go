package postid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringEncoding(t *testing.T) {
	// 6 bytes of id always encode to exactly 8 unpadded characters.
	cases := []struct {
		id   int64
		want string
	}{
		{0, "AAAAAAAA"},
		{1, "AAAAAAAB"},
		{-1, "________"},
		{MaxValue, "f_______"},
		{MinValue, "gAAAAAAA"},
	}

	for _, tc := range cases {
		id, err := FromInt(tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, id.String(), "encoding of %d", tc.id)
	}
}

func TestRoundTrip(t *testing.T) {
	ids := []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40), MaxValue, MinValue}

	for _, n := range ids {
		id, err := FromInt(n)
		require.NoError(t, err)

		parsed, err := Parse(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed, "decode(encode(%d))", n)
		assert.Equal(t, n, parsed.Int())
	}
}

func TestRoundTripRandom(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id, err := New()
		require.NoError(t, err)
		require.GreaterOrEqual(t, id.Int(), int64(MinValue))
		require.LessOrEqual(t, id.Int(), int64(MaxValue))

		parsed, err := Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	}
}

func TestParseRejectsBadLengths(t *testing.T) {
	for _, s := range []string{"", "AAAA", "AAAAAAA", "AAAAAAAAA", "AAAAAAAB=", "tooshort"} {
		_, err := Parse(s)
		if len(s) == EncodedLength {
			continue
		}
		assert.ErrorIs(t, err, ErrBadLength, "input %q", s)
	}
}

func TestParseRejectsBadAlphabet(t *testing.T) {
	_, err := Parse("AAAA+AAA")
	assert.ErrorIs(t, err, ErrBadLength)

	_, err = Parse("AAAA/AAA")
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestFromIntRejectsOutOfRange(t *testing.T) {
	_, err := FromInt(MaxValue + 1)
	assert.ErrorIs(t, err, ErrBadValue)

	_, err = FromInt(MinValue - 1)
	assert.ErrorIs(t, err, ErrBadValue)
}
