package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/pdbridge/native"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		url    string
		server string
		port   int
		ssl    bool
		path   string
	}{
		{"http://example.com", "example.com", 80, false, "/"},
		{"https://example.com/a/b?x=1", "example.com", 443, true, "/a/b?x=1"},
		{"http://127.0.0.1:8080/ping", "127.0.0.1", 8080, false, "/ping"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			var r request
			require.NoError(t, r.parseTarget(tt.url))
			assert.Equal(t, tt.server, r.server)
			assert.Equal(t, tt.port, r.port)
			assert.Equal(t, tt.ssl, r.ssl)
			assert.Equal(t, tt.path, r.path)
		})
	}

	var r request
	assert.Error(t, r.parseTarget("ftp://example.com"))
	assert.Error(t, r.parseTarget("http://"))
	assert.Error(t, r.parseTarget("http://example.com:abc/"))
}

func TestParseAccess(t *testing.T) {
	for in, want := range map[string]native.AccessReply{
		"allow": native.AccessAllow,
		"DENY":  native.AccessDeny,
		"ask":   native.AccessAsk,
	} {
		got, err := parseAccess(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := parseAccess("maybe")
	assert.Error(t, err)
}

func TestHeaderList(t *testing.T) {
	var h headerList
	assert.Nil(t, h.block())
	require.NoError(t, h.Set("A: 1"))
	require.NoError(t, h.Set("B: 2"))
	assert.Error(t, h.Set("bogus"))
	assert.Equal(t, "A: 1\r\nB: 2\r\n", string(h.block()))
}

// drive runs frames until the fetch ends.
func drive(t *testing.T, s *session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		done, err := s.frame()
		require.NoError(t, err)
		if done {
			return
		}
		if s.app.state == stateWaitResponse || s.app.state == stateWaitAccess {
			require.NoError(t, s.host.Wait(ctx))
		}
		s.host.Pump()
	}
}

func startServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		_, _ = w.Write(append([]byte(r.URL.Path+":"), body...))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestSession_Fetch(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		want   string
	}{
		{"get", "GET", "", "/hello:"},
		{"post", "POST", "data", "/hello:data"},
		{"put via query", "put", "x", "/hello:x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request{method: tt.method, body: []byte(tt.body), timeout: time.Second, purpose: "test"}
			require.NoError(t, req.parseTarget(startServer(t)+"/hello"))

			s, err := newSession(options{req: req, access: native.AccessAllow, fps: 30}, zap.NewNop())
			require.NoError(t, err)
			defer s.close()

			drive(t, s)

			assert.False(t, s.app.failed)
			assert.Equal(t, http.StatusOK, s.app.status)
			assert.Equal(t, tt.want, string(s.app.body))
			assert.Contains(t, s.app.trace, "access reply: allow")
			assert.Contains(t, s.app.trace, "header: X-Method: "+strings.ToUpper(tt.method))
		})
	}
}

func TestSession_AccessAsk(t *testing.T) {
	req := request{purpose: "test"}
	require.NoError(t, req.parseTarget(startServer(t)+"/x"))

	s, err := newSession(options{req: req, access: native.AccessAsk, consent: false, fps: 30}, zap.NewNop())
	require.NoError(t, err)
	defer s.close()

	drive(t, s)

	assert.True(t, s.app.failed)
	assert.Equal(t, []string{"access reply: ask", "access decided: allowed=false"}, s.app.trace)
	assert.Nil(t, s.app.conn)
}

func TestSession_AccessDenied(t *testing.T) {
	req := request{purpose: "test"}
	require.NoError(t, req.parseTarget(startServer(t)+"/x"))

	s, err := newSession(options{req: req, access: native.AccessDeny, fps: 30}, zap.NewNop())
	require.NoError(t, err)
	defer s.close()

	drive(t, s)
	assert.True(t, s.app.failed)
	assert.Equal(t, []string{"access reply: deny"}, s.app.trace)
}

func TestTimeoutMillis(t *testing.T) {
	ms, err := timeoutMillis(1500 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint32(1500), ms)

	_, err = timeoutMillis(600 * time.Hour)
	assert.Error(t, err)
	_, err = timeoutMillis(-time.Second)
	assert.Error(t, err)
}

// runFrames runs up to n frames and returns how many ran before the fetch
// ended.
func runFrames(t *testing.T, s *session, n int) int {
	t.Helper()
	for i := 1; i <= n; i++ {
		done, err := s.frame()
		require.NoError(t, err)
		s.host.Pump()
		if done {
			return i
		}
	}
	return n + 1
}

func TestSession_OversizedTimeoutEndsFetch(t *testing.T) {
	req := request{timeout: 600 * time.Hour, purpose: "test"}
	require.NoError(t, req.parseTarget(startServer(t)+"/x"))

	s, err := newSession(options{req: req, access: native.AccessAllow, fps: 30}, zap.NewNop())
	require.NoError(t, err)
	defer s.close()

	assert.Equal(t, 2, runFrames(t, s, 6))
	assert.True(t, s.app.failed)
	assert.Nil(t, s.app.conn)
	assert.Zero(t, s.rt.Bridge().LiveConnections())
}

func TestSession_SetupFailureReleasesConnection(t *testing.T) {
	req := request{timeout: time.Second, purpose: "test"}
	require.NoError(t, req.parseTarget(startServer(t)+"/x"))

	s, err := newSession(options{req: req, access: native.AccessAllow, fps: 30}, zap.NewNop())
	require.NoError(t, err)
	defer s.close()
	s.host.API().Network.HTTP.SetReadTimeout = nil

	assert.Equal(t, 2, runFrames(t, s, 6))
	assert.True(t, s.app.failed)
	assert.Nil(t, s.app.conn)
	assert.Zero(t, s.rt.Bridge().LiveConnections())
	require.NotEmpty(t, s.host.Console)
	assert.Contains(t, s.host.Console[len(s.host.Console)-1], "http.setReadTimeout")
}
