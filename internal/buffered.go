package internal

import (
	"bytes"
	"maps"
	"net/http"
	"sync"
)

// bufferedResponse holds a response in memory. Once discarded every write
// fails with http.ErrHandlerTimeout and nothing reaches the client.
type bufferedResponse struct {
	mu        sync.Mutex
	header    http.Header
	code      int
	body      bytes.Buffer
	discarded bool
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.discarded || b.code != 0 {
		return
	}
	b.code = code
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.discarded {
		return 0, http.ErrHandlerTimeout
	}
	if b.code == 0 {
		b.code = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.discarded = true
	b.body.Reset()
}

// BufferResponse returns a copy of c whose response is held in memory.
// commit copies the held response to c and carries the route, params and
// session resolved on the copy back to c; call it only after the handler
// using the copy has returned. discard drops the held response and any
// later write to the copy. Hijack and streaming are not available on the
// copy. Contexts not created by the router are returned as is with no-op
// funcs.
func BufferResponse(c Context) (buffered Context, commit, discard func()) {
	rc, ok := c.(*requestContext)
	if !ok {
		return c, func() {}, func() {}
	}

	buf := &bufferedResponse{header: make(http.Header)}
	cp := *rc
	cp.responseWriter = NewResponseWriter(buf)
	cp.sessionHookRegistered = false

	commit = func() {
		cp.responseWriter.flush()

		rc.request = cp.request
		rc.method = cp.method
		rc.route, rc.params = cp.route, cp.params
		rc.session, rc.sessionLoaded = cp.session, cp.sessionLoaded

		buf.mu.Lock()
		defer buf.mu.Unlock()
		if buf.discarded {
			return
		}
		maps.Copy(rc.responseWriter.Header(), buf.header)
		if buf.code == 0 {
			return
		}
		rc.responseWriter.WriteHeader(buf.code)
		if buf.body.Len() > 0 {
			_, _ = rc.responseWriter.Write(buf.body.Bytes())
		}
	}
	return &cp, commit, buf.discard
}
