package gopher

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandwichfarm/gopherd/internal/config"
	"github.com/sandwichfarm/gopherd/internal/ops"
)

// sendChunkSize is the buffer size used when streaming file bytes to the
// client; the protocol permits any implementation-chosen chunk size of at
// least 256 bytes.
const sendChunkSize = 4096

// Responder renders the Gopher responses for one transaction: file bytes,
// directory listings, gophermaps, and individual info/error/link items.
// It knows the selector the client originally requested, which it uses to
// rewrite relative selectors found inside submenus.
type Responder struct {
	w              io.Writer
	clientSelector string
	defaultHost    string
	defaultPort    int
	renderMarkdown bool
	logger         *ops.Logger
}

// NewResponder builds a Responder for a single transaction writing to w.
func NewResponder(w io.Writer, clientSelector string, cfg *config.Config, logger *ops.Logger) *Responder {
	return &Responder{
		w:              w,
		clientSelector: clientSelector,
		defaultHost:    cfg.Defaults.Host,
		defaultPort:    cfg.Defaults.Port,
		renderMarkdown: cfg.Rendering.MarkdownEnabled,
		logger:         logger,
	}
}

// SendFile streams path's raw bytes verbatim; no terminator follows a file
// response. If Markdown rendering is enabled and path ends in ".md", the
// file is rendered to plain text first; a parse failure is logged and
// falls back to sending the file's raw bytes, never aborting the
// transaction.
func (r *Responder) SendFile(path string) error {
	if r.renderMarkdown && strings.HasSuffix(path, ".md") {
		if data, err := os.ReadFile(path); err == nil {
			rendered, rerr := RenderMarkdown(data)
			if rerr == nil {
				_, werr := io.WriteString(r.w, rendered)
				return werr
			}
			if r.logger != nil {
				r.logger.Warn("markdown render failed, falling back to raw bytes", "path", path, "error", rerr)
			}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("gopher: open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, sendChunkSize)
	_, err = io.CopyBuffer(r.w, f, buf)
	return err
}

// SendItem serializes item and writes it to the connection. If the
// client's request selector is non-empty, the item's selector doesn't
// already begin with '/', and the item's selector is non-empty, the
// emitted selector is rewritten to Join(clientSelector, item.Selector) —
// this turns a gophermap's relative selectors into ones the client can
// re-request directly from the docroot.
func (r *Responder) SendItem(item *GopherItem) error {
	emit := *item
	if r.clientSelector != "" && emit.Selector != "" && !strings.HasPrefix(emit.Selector, "/") {
		emit.Selector = Join(r.clientSelector, emit.Selector)
	}

	line, err := emit.Serialize()
	if err != nil {
		return err
	}
	_, err = io.WriteString(r.w, line)
	return err
}

// SendInfo emits a non-selectable info line (type 'i').
func (r *Responder) SendInfo(message string) error {
	return r.SendItem(NewSentinelItem(ItemTypeInfo, message))
}

// SendError emits an error line (type '3').
func (r *Responder) SendError(message string) error {
	return r.SendItem(NewSentinelItem(ItemTypeError, message))
}

// SendTerminator writes the Gopher terminator: a single "." byte. The
// preceding entry's own CRLF already separates it from this line, so no
// CRLF follows the dot.
func (r *Responder) SendTerminator() error {
	_, err := io.WriteString(r.w, ".")
	return err
}

// SendDirectoryListing enumerates path's entries and emits one item per
// visible entry. Entries whose name begins with '.' or equals
// "gophermap" are hidden. If emitHeader is set, two info entries
// ("[selector]:" and a blank line) are emitted first.
//
// A failed entry is logged and counted but does not abort the listing;
// the operation returns an error only if at least one entry failed.
func (r *Responder) SendDirectoryListing(path string, emitHeader bool) error {
	if emitHeader {
		if err := r.SendInfo(fmt.Sprintf("[%s]:", r.clientSelector)); err != nil {
			return err
		}
		if err := r.SendInfo(""); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("gopher: read dir %s: %w", path, err)
	}

	var anyFailed bool
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == "gophermap" {
			continue
		}

		itemType := ItemTypeTextFile
		display := name + " "
		if entry.IsDir() {
			itemType = ItemTypeDirectory
			display = name + "/"
		}

		item := NewLinkItem(itemType, display, name, r.defaultHost, r.defaultPort)
		if err := r.SendItem(item); err != nil {
			anyFailed = true
			if r.logger != nil {
				r.logger.Warn("failed to send directory entry", "name", name, "error", err)
			}
		}
	}

	if anyFailed {
		return fmt.Errorf("gopher: one or more directory entries failed to send")
	}
	return nil
}

// SendGophermap renders a hand-authored gophermap file: info lines,
// parsed items, an inlined auto-listing on a bare "*", stopping at a bare
// ".". Parse failures on individual item lines emit an error entry for
// that line and continue with the rest of the file.
func (r *Responder) SendGophermap(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gopher: read gophermap %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for _, line := range ParseGophermapLines(data, r.defaultHost, r.defaultPort) {
		switch line.Kind {
		case GophermapLineTerminator:
			return nil
		case GophermapLineWildcard:
			if err := r.SendDirectoryListing(dir, false); err != nil {
				return err
			}
		case GophermapLineInfo:
			if err := r.SendInfo(line.Info); err != nil {
				return err
			}
		case GophermapLineItem:
			if err := r.SendItem(line.Item); err != nil {
				return err
			}
		case GophermapLineParseError:
			if err := r.SendError("Failed to parse this line of gophermap"); err != nil {
				return err
			}
		}
	}
	return nil
}
