package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Save(context.Background(), "doc-1_report.pdf", strings.NewReader("blob bytes")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rc, err := s.Open(context.Background(), "doc-1_report.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "blob bytes" {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "../escape", "sub/dir", `win\path`} {
		if err := s.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Errorf("Save(%q) must fail", key)
		}
		if _, err := s.Open(context.Background(), key); err == nil {
			t.Errorf("Open(%q) must fail", key)
		}
	}
}
