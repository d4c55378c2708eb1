package dedupe

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/vcard"
)

// ErrRelocation marks a filesystem move that could not be completed. The run
// records it and continues with the next pair.
var ErrRelocation = errors.New("relocation failed")

// Relocator applies a pair's decision outcome to the filesystem: it writes
// the merged card (if any) into the active directory, quarantines both
// originals, and keeps the primary alive in the active directory whenever no
// usable merged file exists.
type Relocator struct {
	QuarantineRoot string
	Log            *zap.SugaredLogger
}

func NewRelocator(root string, log *zap.SugaredLogger) *Relocator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Relocator{QuarantineRoot: root, Log: log}
}

// Bucket returns the quarantine directory for cards originating from
// sourceDir. The bucket is keyed by a hash of the source path so repeated
// runs against the same directory reuse it.
func (r *Relocator) Bucket(sourceDir string) string {
	sum := md5.Sum([]byte(sourceDir))
	return filepath.Join(r.QuarantineRoot, fmt.Sprintf("%x", sum)[:8])
}

// Apply executes the relocation state machine for one pair. merged may be
// nil (no merge was decided). It reports whether a merged file was durably
// written. The merge is written before either original moves, so at least
// one representative of the pair survives no matter where a later step
// fails.
func (r *Relocator) Apply(merged *vcard.Card, primaryPath, secondaryPath string) (bool, error) {
	activeDir := filepath.Dir(primaryPath)
	bucket := r.Bucket(activeDir)
	if err := os.MkdirAll(bucket, 0755); err != nil {
		return false, fmt.Errorf("%w: creating bucket %s: %v", ErrRelocation, bucket, err)
	}

	mergedWritten := false
	if merged != nil {
		mergedPath := filepath.Join(activeDir, "merged_"+filepath.Base(primaryPath))
		if err := vcard.Write(mergedPath, merged); err != nil {
			r.Log.Errorw("failed to write merged card", "path", mergedPath, "error", err)
		} else {
			r.Log.Infow("merged card written", "path", mergedPath)
			mergedWritten = true
		}
	}

	// Both originals leave the active directory regardless of the merge
	// outcome; a superseded or flagged card never stays live.
	var moveErrs []error
	primaryMoved := true
	if err := moveFile(primaryPath, filepath.Join(bucket, filepath.Base(primaryPath))); err != nil {
		primaryMoved = false
		moveErrs = append(moveErrs, err)
	}
	if err := moveFile(secondaryPath, filepath.Join(bucket, filepath.Base(secondaryPath))); err != nil {
		moveErrs = append(moveErrs, err)
	}

	// Without a merged file the pair needs a live representative: restore a
	// copy of the primary from the bucket.
	if !mergedWritten && primaryMoved {
		src := filepath.Join(bucket, filepath.Base(primaryPath))
		if err := copyFile(src, primaryPath); err != nil {
			r.Log.Errorw("failed to restore primary copy", "path", primaryPath, "error", err)
		} else {
			r.Log.Infow("kept a copy of the primary in the active directory", "path", primaryPath)
		}
	}

	if len(moveErrs) > 0 {
		return mergedWritten, fmt.Errorf("%w: %v", ErrRelocation, errors.Join(moveErrs...))
	}
	return mergedWritten, nil
}

// moveFile renames src to dst, falling back to copy-and-remove for moves
// across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
