package gopher

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/sandwichfarm/gopherd/internal/config"
	"github.com/sandwichfarm/gopherd/internal/ops"
)

// maxSelectorBytes is the protocol's selector length ceiling. A selector
// of exactly maxSelectorBytes-1 bytes is processed normally; reaching
// maxSelectorBytes triggers SelectorTooLong.
const maxSelectorBytes = 255

// HandleTransaction drives one client connection end-to-end: read the
// selector, sanitize it, resolve it against docroot, dispatch to the
// response builder, and close the connection. This is single-shot — the
// connection is always closed when it returns. Every failure after the
// point of no return is logged and aborts only this transaction; it never
// crashes the process.
func HandleTransaction(conn net.Conn, docroot string, cfg *config.Config, logger *ops.Logger) {
	defer conn.Close()

	start := time.Now()
	remote := conn.RemoteAddr().String()
	timeout := time.Duration(cfg.Listen.RecvTimeoutMs) * time.Millisecond

	selector, oversized, err := readSelector(conn, timeout)
	if err != nil {
		logger.LogProtocolRequest("", remote, time.Since(start), err)
		return
	}

	sendTimeout := time.Duration(cfg.Listen.SendTimeoutMs) * time.Millisecond
	_ = conn.SetWriteDeadline(time.Now().Add(sendTimeout))

	if oversized {
		resp := NewResponder(conn, "", cfg, logger)
		_ = resp.SendError("Selector string longer than 255 characters")
		logger.LogProtocolRequest(selector, remote, time.Since(start), fmt.Errorf("gopher: selector too long"))
		return
	}

	sanitized, modified := Sanitize(selector)
	if modified {
		logger.LogTraversalAttempt(selector, sanitized, remote)
	}

	resp := NewResponder(conn, sanitized, cfg, logger)

	target := docroot
	if sanitized != "" {
		target = Join(docroot, sanitized)
	}

	var sendErr error
	info, statErr := os.Stat(target)
	switch {
	case statErr != nil:
		sendErr = resp.SendError("Selector not found.")
		if sendErr == nil {
			sendErr = resp.SendTerminator()
		}

	case info.IsDir():
		gophermapPath := filepath.Join(target, "gophermap")
		if gmInfo, gmErr := os.Stat(gophermapPath); gmErr == nil && !gmInfo.IsDir() {
			sendErr = resp.SendGophermap(gophermapPath)
		} else {
			sendErr = resp.SendDirectoryListing(target, true)
		}
		if sendErr == nil {
			sendErr = resp.SendTerminator()
		}

	default:
		sendErr = resp.SendFile(target)
	}

	logger.LogProtocolRequest(sanitized, remote, time.Since(start), sendErr)
}

// readSelector reads the client's selector, honoring the configured
// receive timeout. It accumulates bytes until it finds the first TAB, CR
// or LF (the request terminator, per the protocol's tolerant framing) or
// until the accumulated length reaches maxSelectorBytes, whichever comes
// first. A timeout or a zero-length read with nothing previously
// received is a fatal transaction error.
func readSelector(conn net.Conn, timeout time.Duration) (selector string, oversized bool, err error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", false, err
	}

	var buf []byte
	chunk := make([]byte, maxSelectorBytes)

	for {
		n, rerr := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}

		if idx := bytes.IndexAny(buf, "\t\r\n"); idx >= 0 {
			sel := string(buf[:idx])
			return sel, len(sel) >= maxSelectorBytes, nil
		}

		if len(buf) >= maxSelectorBytes {
			return string(buf[:maxSelectorBytes]), true, nil
		}

		if rerr != nil {
			if len(buf) == 0 {
				return "", false, rerr
			}
			return string(buf), len(buf) >= maxSelectorBytes, nil
		}
	}
}
