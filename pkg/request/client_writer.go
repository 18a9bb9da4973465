package request

import "net/http"

// ClientWriter wraps a http.ResponseWriter and records the status code
// written to it, for monitoring after the handler has run.
type ClientWriter struct {
	http.ResponseWriter

	statusCode  int
	wroteHeader bool
}

// NewClientWriter creates a new ClientWriter.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
	}
}

// WriteHeader implements the http.ResponseWriter interface.
func (c *ClientWriter) WriteHeader(statusCode int) {
	if c.wroteHeader {
		return
	}
	c.statusCode = statusCode
	c.wroteHeader = true
	c.ResponseWriter.WriteHeader(statusCode)
}

// Write implements the http.ResponseWriter interface.
func (c *ClientWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.ResponseWriter.Write(b)
}

// StatusCode returns the status code written to the client, or 200 if
// none was set explicitly.
func (c *ClientWriter) StatusCode() int {
	if !c.wroteHeader {
		return http.StatusOK
	}
	return c.statusCode
}
