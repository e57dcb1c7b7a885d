package contentdiff

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Ledger log file names. One file per phase, append-only; a rerun reads
// them back to compute what is already done.
const (
	LogNewIDsCSV           = "content-diff__new-ids-csv.log"
	LogModifiedIDs         = "content-diff__modified-ids.log"
	LogImportedPostIDs     = "content-diff__imported-post-ids.log"
	LogUpdatedParentIDs    = "content-diff__updated-parent-ids.log"
	LogDeletedModifiedIDs  = "content-diff__deleted-modified-ids.log"
	LogUpdatedFeaturedImgs = "content-diff__updated-feat-imgs-ids.log"
	LogBlockIDsUpdates     = "content-diff__wp-blocks-ids-updates.log"
	LogRecreatedCategories = "content-diff__recreated_categories.log"
	LogImageIDsFixes       = "content-diff__fixed-image-ids.log"
	LogErrors              = "content-diff__err.log"
)

// Ledger is the append-only run state under one working directory. Every
// record is a newline-terminated JSON object (or a raw scalar for the
// CSV and deletion logs); nothing is ever rewritten in place.
type Ledger struct {
	dir string
}

// NewLedger returns a Ledger rooted at dir, creating it if needed.
func NewLedger(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory %s: %w", dir, err)
	}
	return &Ledger{dir: dir}, nil
}

// Dir returns the ledger's working directory.
func (l *Ledger) Dir() string {
	return l.dir
}

// Path returns the full path of a log file.
func (l *Ledger) Path(name string) string {
	return filepath.Join(l.dir, name)
}

// AppendJSON appends one record as a JSON line.
func (l *Ledger) AppendJSON(name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", name, err)
	}
	return l.AppendLine(name, string(b))
}

// AppendLine appends one raw line.
func (l *Ledger) AppendLine(name, line string) error {
	f, err := os.OpenFile(l.Path(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("appending to %s: %w", name, err)
	}
	return f.Close()
}

// AppendError appends a message to the error log.
func (l *Ledger) AppendError(msg string) error {
	return l.AppendLine(LogErrors, msg)
}

// WriteNewIDsCSV stores the diff result as one CSV line, replacing any
// previous diff. This is the one file that is overwritten rather than
// appended: the diff is recomputed whole on every run.
func (l *Ledger) WriteNewIDsCSV(ids []int64) error {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	path := l.Path(LogNewIDsCSV)
	if err := os.WriteFile(path, []byte(strings.Join(parts, ",")), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", LogNewIDsCSV, err)
	}
	return nil
}

// ReadNewIDsCSV reads back the stored diff. A missing file returns nil.
func (l *Ledger) ReadNewIDsCSV() ([]int64, error) {
	b, err := os.ReadFile(l.Path(LogNewIDsCSV))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", LogNewIDsCSV, err)
	}
	var ids []int64
	for _, part := range strings.Split(strings.TrimSpace(string(b)), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// readJSONLines replays a JSONL file, skipping lines that do not parse.
// Malformed lines are expected after interrupted runs and must never
// block a resume. A missing file yields no records.
func readJSONLines[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var v T
		if err := json.Unmarshal(sc.Bytes(), &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return out, nil
}

// ReadImportedPosts replays the imported-post log.
func (l *Ledger) ReadImportedPosts() ([]ImportedPost, error) {
	return readJSONLines[ImportedPost](l.Path(LogImportedPostIDs))
}

// ImportedOldIDs returns the set of source-side IDs already imported.
// Checking it before each import is what makes reruns at-most-once.
func (l *Ledger) ImportedOldIDs() (map[int64]bool, error) {
	posts, err := l.ReadImportedPosts()
	if err != nil {
		return nil, err
	}
	done := make(map[int64]bool, len(posts))
	for _, p := range posts {
		done[p.IDOld] = true
	}
	return done, nil
}

// WriteModifiedIDs stores the modified-post diff as JSON lines,
// replacing any previous diff. Like the new-IDs CSV it is recomputed
// whole on every search run.
func (l *Ledger) WriteModifiedIDs(ids []ModifiedID) error {
	var sb strings.Builder
	for _, id := range ids {
		b, err := json.Marshal(id)
		if err != nil {
			return fmt.Errorf("encoding %s record: %w", LogModifiedIDs, err)
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(l.Path(LogModifiedIDs), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", LogModifiedIDs, err)
	}
	return nil
}

// ReadModifiedIDs replays the modified-post log.
func (l *Ledger) ReadModifiedIDs() ([]ModifiedID, error) {
	return readJSONLines[ModifiedID](l.Path(LogModifiedIDs))
}

// ReadParentUpdates replays the parent-update log.
func (l *Ledger) ReadParentUpdates() ([]ParentUpdate, error) {
	return readJSONLines[ParentUpdate](l.Path(LogUpdatedParentIDs))
}

// UpdatedParentPostIDs returns the set of local post IDs whose parent
// was already fixed.
func (l *Ledger) UpdatedParentPostIDs() (map[int64]bool, error) {
	updates, err := l.ReadParentUpdates()
	if err != nil {
		return nil, err
	}
	done := make(map[int64]bool, len(updates))
	for _, u := range updates {
		done[u.PostID] = true
	}
	return done, nil
}

// ReadFeaturedImageUpdates replays the featured-image log.
func (l *Ledger) ReadFeaturedImageUpdates() ([]FeaturedImageUpdate, error) {
	return readJSONLines[FeaturedImageUpdate](l.Path(LogUpdatedFeaturedImgs))
}

// UpdatedFeaturedImagePostIDs returns the set of local post IDs whose
// featured image was already remapped.
func (l *Ledger) UpdatedFeaturedImagePostIDs() (map[int64]bool, error) {
	updates, err := l.ReadFeaturedImageUpdates()
	if err != nil {
		return nil, err
	}
	done := make(map[int64]bool, len(updates))
	for _, u := range updates {
		done[u.PostID] = true
	}
	return done, nil
}

// ReadDeletedModifiedIDs replays the deleted-post log, one local post ID
// per line. A modified post already deleted is not deleted again on a
// rerun.
func (l *Ledger) ReadDeletedModifiedIDs() (map[int64]bool, error) {
	f, err := os.Open(l.Path(LogDeletedModifiedIDs))
	if errors.Is(err, fs.ErrNotExist) {
		return map[int64]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", LogDeletedModifiedIDs, err)
	}
	defer f.Close()

	done := make(map[int64]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		id, err := strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
		if err != nil {
			continue
		}
		done[id] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", LogDeletedModifiedIDs, err)
	}
	return done, nil
}

// AppendDeletedModifiedID records one deleted local post ID.
func (l *Ledger) AppendDeletedModifiedID(id int64) error {
	return l.AppendLine(LogDeletedModifiedIDs, strconv.FormatInt(id, 10))
}
