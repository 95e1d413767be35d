package native

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetErrString(t *testing.T) {
	tests := []struct {
		code NetErr
		want string
	}{
		{NetOK, "NET_OK"},
		{NetBusy, "NET_BUSY"},
		{NetReadTimeout, "NET_READ_TIMEOUT"},
		{NetReadOverflow, "NET_READ_OVERFLOW"},
		{NetNotConnectedToAP, "NET_NOT_CONNECTED_TO_AP"},
		{NetConnectionClosed, "NET_CONNECTION_CLOSED"},
		{NetErr(-42), "unknown code -42"},
		{NetErr(7), "unknown code 7"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.String(), "NetErr(%d)", int32(tt.code))
	}
}

func TestNetErrClosedSet(t *testing.T) {
	for code := NetErr(0); code >= NetConnectionClosed; code-- {
		assert.True(t, code.Known(), "code %d missing from table", int32(code))
	}
	assert.False(t, NetErr(-19).Known())
	assert.Equal(t, "NET_READ_ERROR", DescribeNetErr(-6))
}

func TestCString(t *testing.T) {
	b, err := CString("/ping")
	require.NoError(t, err)
	require.Len(t, b, 6)
	assert.Zero(t, b[5], "trailing nul")
	assert.Equal(t, "/ping", GoString(b))

	_, err = CString("a\x00b")
	var nulErr *NulError
	require.ErrorAs(t, err, &nulErr)
	assert.Equal(t, 1, nulErr.Offset)
}

func TestOptionalCString(t *testing.T) {
	b, err := OptionalCString(nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	s := "purpose"
	b, err = OptionalCString(&s)
	require.NoError(t, err)
	assert.Equal(t, s, GoString(b))
}

func TestWidthChecks(t *testing.T) {
	_, ok := CheckInt32(math.MaxInt32)
	assert.True(t, ok, "MaxInt32 should fit")
	_, ok = CheckInt32(math.MaxInt32 + 1)
	assert.False(t, ok, "MaxInt32+1 should overflow")

	_, ok = CheckUint32(-1)
	assert.False(t, ok, "negative length")
	v, ok := CheckUint32(512)
	assert.True(t, ok)
	assert.Equal(t, uint32(512), v)

	assert.Nil(t, Buffer([]byte{}))
}

func TestAPIClaim(t *testing.T) {
	api := &API{}
	require.True(t, api.Claim(), "first claim")
	assert.False(t, api.Claim(), "second claim")
}
