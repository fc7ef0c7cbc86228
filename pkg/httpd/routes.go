package httpd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"
)

// The request is read once into a fixed buffer and matched byte-for-byte
// against a small set of literal request lines; there is no HTTP parsing
// beyond that.
const readBufferSize = 1024

var (
	routeIndex = []byte("GET / HTTP/1.1\r\n")
	routeSleep = []byte("GET /sleep HTTP/1.1\r\n")
)

const (
	statusLineOK       = "HTTP/1.1 200 OK"
	statusLineNotFound = "HTTP/1.1 404 NOT FOUND"
)

// handleConn runs inside a pool worker and owns conn exclusively.
// I/O and file errors are fatal to this connection only.
func (s *Server) handleConn(ctx context.Context, conn net.Conn, connID string) {
	defer conn.Close()

	start := time.Now()

	_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		atomic.AddInt64(&s.errorConnections, 1)
		s.logger.Warnf("conn %s: read failed: %v", connID, err)
		return
	}

	status, statusLine, route, file := s.route(buf[:n])
	s.logger.Debugf("conn %s: %s -> %d", connID, route, status)

	body, err := os.ReadFile(file)
	if err != nil {
		atomic.AddInt64(&s.errorConnections, 1)
		s.logger.Errorf("conn %s: resource %s unreadable: %v", connID, file, err)
		return
	}

	// The sleep route blocks inside route; the write deadline must not
	// start ticking until there is a response to send.
	_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))

	if err := writeResponse(conn, statusLine, body); err != nil {
		atomic.AddInt64(&s.errorConnections, 1)
		s.logger.Warnf("conn %s: write failed: %v", connID, err)
		return
	}

	atomic.AddInt64(&s.handledConnections, 1)
	switch status {
	case 200:
		atomic.AddInt64(&s.servedOK, 1)
	case 404:
		atomic.AddInt64(&s.servedNotFound, 1)
	}

	s.notifyObservers(connID, status, route, time.Since(start))
}

// route matches the raw request against the fixed routes.
// The sleep route blocks this worker for the configured delay before
// answering; siblings keep serving meanwhile.
func (s *Server) route(req []byte) (status int, statusLine, route, file string) {
	switch {
	case bytes.HasPrefix(req, routeIndex):
		return 200, statusLineOK, "/", s.config.IndexFile
	case bytes.HasPrefix(req, routeSleep):
		time.Sleep(s.config.SleepDelay)
		return 200, statusLineOK, "/sleep", s.config.IndexFile
	default:
		return 404, statusLineNotFound, "unmatched", s.config.NotFoundFile
	}
}

// writeResponse writes status line, an exact Content-Length, a blank line
// and the body, then flushes.
func writeResponse(conn net.Conn, statusLine string, body []byte) error {
	w := bufio.NewWriter(conn)
	if _, err := fmt.Fprintf(w, "%s\r\nContent-Length: %d\r\n\r\n", statusLine, len(body)); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	return w.Flush()
}
