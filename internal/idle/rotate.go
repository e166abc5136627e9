package idle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Rotate gzip-compresses path into "<path>.<unix-timestamp>.gz" and
// truncates the original file, so the next Recorder.Record call starts a
// fresh CSV (with a new header). A missing path is not an error.
func Rotate(path string, now time.Time) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("idle rotate: open %s: %w", path, err)
	}
	defer src.Close()

	archivePath := fmt.Sprintf("%s.%d.gz", path, now.Unix())
	dst, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("idle rotate: create %s: %w", archivePath, err)
	}
	defer dst.Close()

	gz, err := gzip.NewWriterLevel(dst, gzip.BestSpeed)
	if err != nil {
		return fmt.Errorf("idle rotate: gzip writer: %w", err)
	}
	if _, err := io.Copy(gz, src); err != nil {
		return fmt.Errorf("idle rotate: compress %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("idle rotate: close gzip: %w", err)
	}

	return os.Truncate(path, 0)
}

// ArchivePath returns the gzip archive path Rotate would produce for path
// at time now, used by callers that need to predict the name before
// rotating.
func ArchivePath(path string, now time.Time) string {
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.%d.gz", filepath.Base(path), now.Unix()))
}
