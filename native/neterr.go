package native

import "strconv"

// NetErr is the host's closed set of network and HTTP result codes.
// Zero is success; every failure is negative.
type NetErr int32

const (
	NetOK                 NetErr = 0
	NetNoDevice           NetErr = -1
	NetBusy               NetErr = -2
	NetWriteError         NetErr = -3
	NetWriteBusy          NetErr = -4
	NetWriteTimeout       NetErr = -5
	NetReadError          NetErr = -6
	NetReadBusy           NetErr = -7
	NetReadTimeout        NetErr = -8
	NetReadOverflow       NetErr = -9
	NetFrameError         NetErr = -10
	NetBadResponse        NetErr = -11
	NetErrorResponse      NetErr = -12
	NetResetTimeout       NetErr = -13
	NetBufferTooSmall     NetErr = -14
	NetUnexpectedResponse NetErr = -15
	NetNotConnectedToAP   NetErr = -16
	NetNotImplemented     NetErr = -17
	NetConnectionClosed   NetErr = -18
)

var netErrTags = map[NetErr]string{
	NetOK:                 "NET_OK",
	NetNoDevice:           "NET_NO_DEVICE",
	NetBusy:               "NET_BUSY",
	NetWriteError:         "NET_WRITE_ERROR",
	NetWriteBusy:          "NET_WRITE_BUSY",
	NetWriteTimeout:       "NET_WRITE_TIMEOUT",
	NetReadError:          "NET_READ_ERROR",
	NetReadBusy:           "NET_READ_BUSY",
	NetReadTimeout:        "NET_READ_TIMEOUT",
	NetReadOverflow:       "NET_READ_OVERFLOW",
	NetFrameError:         "NET_FRAME_ERROR",
	NetBadResponse:        "NET_BAD_RESPONSE",
	NetErrorResponse:      "NET_ERROR_RESPONSE",
	NetResetTimeout:       "NET_RESET_TIMEOUT",
	NetBufferTooSmall:     "NET_BUFFER_TOO_SMALL",
	NetUnexpectedResponse: "NET_UNEXPECTED_RESPONSE",
	NetNotConnectedToAP:   "NET_NOT_CONNECTED_TO_AP",
	NetNotImplemented:     "NET_NOT_IMPLEMENTED",
	NetConnectionClosed:   "NET_CONNECTION_CLOSED",
}

// String returns the stable diagnostic tag for the code. Codes outside the
// known set render as "unknown code N" so newer firmware never breaks
// translation.
func (e NetErr) String() string {
	if tag, ok := netErrTags[e]; ok {
		return tag
	}
	return "unknown code " + strconv.Itoa(int(e))
}

// Known reports whether the code belongs to the closed set.
func (e NetErr) Known() bool {
	_, ok := netErrTags[e]
	return ok
}

// DescribeNetErr translates a raw signed result, as returned by read, into
// its tag.
func DescribeNetErr(code int32) string {
	return NetErr(code).String()
}
