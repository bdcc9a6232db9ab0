package save

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// SnapshotVersion is written into every snapshot header.
const SnapshotVersion = 1

// Header is the first line of a snapshot file.
type Header struct {
	Version  int       `json:"version"`
	Slot     string    `json:"slot"`
	Revision string    `json:"revision"`
	SavedAt  time.Time `json:"saved_at"`
	Playtime float64   `json:"playtime"`
}

// ErrNoSnapshot is returned when a slot has no snapshot files.
var ErrNoSnapshot = errors.New("no snapshot")

const snapshotExt = ".json.zst"

// WriteSnapshot writes a zstd-compressed snapshot of an encoded save into
// dir and prunes the oldest files of the slot beyond keep. It returns the
// path written.
func WriteSnapshot(dir string, h Header, encoded string, keep int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	if h.Version == 0 {
		h.Version = SnapshotVersion
	}
	name := fmt.Sprintf("%s-%020d%s", h.Slot, h.SavedAt.UnixNano(), snapshotExt)
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"

	if err := writeSnapshotFile(tmp, h, encoded); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	if keep > 0 {
		if err := prune(dir, h.Slot, keep); err != nil {
			return path, err
		}
	}
	return path, nil
}

func writeSnapshotFile(path string, h Header, encoded string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	werr := writeBody(bufio.NewWriter(enc), h, encoded)
	if cerr := enc.Close(); werr == nil && cerr != nil {
		werr = fmt.Errorf("zstd close: %w", cerr)
	}
	if werr != nil {
		return werr
	}
	return f.Sync()
}

func writeBody(bw *bufio.Writer, h Header, encoded string) error {
	hb, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return err
	}
	if _, err := bw.WriteString(encoded); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadSnapshot returns the header and encoded save stored at path.
func ReadSnapshot(path string) (Header, string, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, "", err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, "", fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, "", fmt.Errorf("%w: snapshot header: %v", ErrInvalidSave, err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, "", fmt.Errorf("%w: snapshot header: %v", ErrInvalidSave, err)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return h, "", fmt.Errorf("%w: snapshot body: %v", ErrInvalidSave, err)
	}
	return h, string(body), nil
}

// LatestSnapshot returns the path of the newest snapshot of a slot.
func LatestSnapshot(dir, slot string) (string, error) {
	files, err := listSnapshots(dir, slot)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoSnapshot
	}
	return files[len(files)-1], nil
}

// listSnapshots returns a slot's snapshot paths, oldest first. The
// zero-padded timestamp in the name makes lexical order chronological.
func listSnapshots(dir, slot string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var out []string
	prefix := slot + "-"
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

func prune(dir, slot string, keep int) error {
	files, err := listSnapshots(dir, slot)
	if err != nil {
		return err
	}
	for len(files) > keep {
		if err := os.Remove(files[0]); err != nil {
			return fmt.Errorf("prune snapshot: %w", err)
		}
		files = files[1:]
	}
	return nil
}
