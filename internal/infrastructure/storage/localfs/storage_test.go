package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "doc-1_ncert.pdf", strings.NewReader("payload")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := storage.Open(context.Background(), "doc-1_ncert.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("unexpected payload %q", got)
	}
}

func TestOpenMissingKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := storage.Open(context.Background(), "nope.pdf"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		if err := storage.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Errorf("Save(%q) accepted an unsafe key", key)
		}
		if _, err := storage.Open(context.Background(), key); err == nil {
			t.Errorf("Open(%q) accepted an unsafe key", key)
		}
	}
}
