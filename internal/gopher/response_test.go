package gopher

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandwichfarm/gopherd/internal/config"
)

func testResponder(t *testing.T, buf *bytes.Buffer, clientSelector string, cfg *config.Config) *Responder {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	return NewResponder(buf, clientSelector, cfg, nil)
}

func TestSendFileRawBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	var buf bytes.Buffer
	r := testResponder(t, &buf, "hello.txt", nil)

	if err := r.SendFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "hi\n" {
		t.Errorf("expected raw file bytes, got %q", buf.String())
	}
}

func TestSendDirectoryListingHidesDotfilesAndGophermap(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", ".secret", "gophermap"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write fixture %s: %v", name, err)
		}
	}

	var buf bytes.Buffer
	r := testResponder(t, &buf, "sub", nil)

	if err := r.SendDirectoryListing(dir, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[sub]:") {
		t.Errorf("expected header entry, got: %q", out)
	}
	if !strings.Contains(out, "0a.txt \ta.txt\tlocalhost\t70\r\n") {
		t.Errorf("expected a.txt entry in listing, got: %q", out)
	}
	if strings.Contains(out, ".secret") {
		t.Errorf("hidden file leaked into listing: %q", out)
	}
	if strings.Contains(out, "\tgophermap\t") {
		t.Errorf("gophermap leaked into listing: %q", out)
	}
}

func TestSendGophermapWildcardInlinesListing(t *testing.T) {
	dir := t.TempDir()
	gophermapPath := filepath.Join(dir, "gophermap")
	content := "iWelcome\tfake\t(NULL)\t0\n*\n.\niUnreachable\tfake\t(NULL)\t0\n"
	if err := os.WriteFile(gophermapPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write gophermap: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write readme.txt: %v", err)
	}

	var buf bytes.Buffer
	r := testResponder(t, &buf, "menu", nil)

	if err := r.SendGophermap(gophermapPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Welcome") {
		t.Errorf("expected welcome entry, got: %q", out)
	}
	if !strings.Contains(out, "readme.txt") {
		t.Errorf("expected inlined listing to include readme.txt, got: %q", out)
	}
	if strings.Contains(out, "Unreachable") {
		t.Errorf("line after terminator must not be emitted, got: %q", out)
	}
}

func TestSendItemRewritesRelativeSelector(t *testing.T) {
	var buf bytes.Buffer
	r := testResponder(t, &buf, "docs", nil)

	item := NewLinkItem(ItemTypeTextFile, "Intro", "intro.txt", "localhost", 70)
	if err := r.SendItem(item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "\tdocs/intro.txt\t") {
		t.Errorf("expected rewritten selector 'docs/intro.txt', got: %q", buf.String())
	}
}

func TestSendItemLeavesAbsoluteSelectorAlone(t *testing.T) {
	var buf bytes.Buffer
	r := testResponder(t, &buf, "docs", nil)

	item := NewLinkItem(ItemTypeDirectory, "Root", "/elsewhere", "localhost", 70)
	if err := r.SendItem(item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "\t/elsewhere\t") {
		t.Errorf("expected absolute selector left untouched, got: %q", buf.String())
	}
}

func TestSendFileRendersMarkdownWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.md")
	if err := os.WriteFile(path, []byte("# Title\n\nbody\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg := config.Default()
	cfg.Rendering.MarkdownEnabled = true

	var buf bytes.Buffer
	r := testResponder(t, &buf, "page.md", cfg)

	if err := r.SendFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "# Title") {
		t.Errorf("expected rendered output, not raw markdown, got: %q", out)
	}
	if !strings.Contains(out, "=== Title") {
		t.Errorf("expected decorated heading, got: %q", out)
	}
	if strings.HasSuffix(out, ".") {
		t.Errorf("markdown file response must not carry a menu terminator, got: %q", out)
	}
}

func TestSendTerminatorHasNoCRLF(t *testing.T) {
	var buf bytes.Buffer
	r := testResponder(t, &buf, "", nil)

	if err := r.SendTerminator(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "." {
		t.Errorf("expected bare '.' terminator, got %q", buf.String())
	}
}
