package handlers

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// uploadsRoot is where locally stored product images live. Image URLs in the
// catalog are paths like /uploads/<file> relative to this root.
const uploadsRoot = "/app/public"

// safeDeleteUpload removes a locally stored image by its catalog URL. Only
// paths under uploads/ are eligible, traversal out of the root is refused,
// and a file that is already gone counts as deleted.
func safeDeleteUpload(imageURL string) error {
	trimmed := strings.TrimSpace(imageURL)
	if trimmed == "" {
		return nil
	}

	rel := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
	rel = strings.TrimPrefix(rel, "/")
	if !strings.HasPrefix(rel, "uploads/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", imageURL)
	}

	root := filepath.Clean(uploadsRoot)
	target := filepath.Clean(filepath.Join(root, filepath.FromSlash(rel)))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload root: %s", imageURL)
	}

	err := os.Remove(target)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
