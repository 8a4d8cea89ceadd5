package handlers

import "testing"

func TestSafeDeleteUploadIgnoresEmptyPath(t *testing.T) {
	if err := safeDeleteUpload(""); err != nil {
		t.Fatalf("empty path should be a no-op, got %v", err)
	}
	if err := safeDeleteUpload("   "); err != nil {
		t.Fatalf("blank path should be a no-op, got %v", err)
	}
}

func TestSafeDeleteUploadRefusesNonUploadPaths(t *testing.T) {
	paths := []string{
		"/etc/passwd",
		"templates/index.html",
		"/uploads/../main.go",
	}
	for _, p := range paths {
		if err := safeDeleteUpload(p); err == nil {
			t.Fatalf("expected refusal for %q", p)
		}
	}
}

func TestSafeDeleteUploadMissingFileIsNoOp(t *testing.T) {
	if err := safeDeleteUpload("/uploads/does-not-exist.webp"); err != nil {
		t.Fatalf("missing file should be a no-op, got %v", err)
	}
}
