package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSectionDir_WriteOnce(t *testing.T) {
	sections := NewSectionDir(filepath.Join(t.TempDir(), "MDA"))
	ctx := context.Background()

	written, err := sections.WriteSection(ctx, "ACME_0001_2001_20010315.mda", "first")
	if err != nil || !written {
		t.Fatalf("first write = %v, %v; want true, nil", written, err)
	}

	written, err = sections.WriteSection(ctx, "ACME_0001_2001_20010315.mda", "second")
	if err != nil || written {
		t.Fatalf("second write = %v, %v; want false, nil", written, err)
	}

	text, err := sections.ReadSection("ACME_0001_2001_20010315.mda")
	if err != nil {
		t.Fatalf("ReadSection failed: %v", err)
	}
	if text != "first" {
		t.Errorf("artifact = %q, want the first write", text)
	}
}

func TestSectionDir_NameStaysInDirectory(t *testing.T) {
	root := t.TempDir()
	sections := NewSectionDir(filepath.Join(root, "MDA"))

	if _, err := sections.WriteSection(context.Background(), "../escape.mda", "text"); err != nil {
		t.Fatalf("WriteSection failed: %v", err)
	}
	if _, err := sections.ReadSection("escape.mda"); err != nil {
		t.Errorf("artifact should land inside the section directory: %v", err)
	}
}

func TestSectionDir_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewSectionDir(t.TempDir()).WriteSection(ctx, "a.mda", "text"); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}
