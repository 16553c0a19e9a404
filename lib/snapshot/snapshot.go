// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/Wardy-uk/NOVA-sub001/lib/clock"
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
	"github.com/Wardy-uk/NOVA-sub001/lib/taskstore"
)

const (
	formatName    = "nova-snapshot"
	formatVersion = 1

	// maxLineBytes bounds a single uncompressed snapshot line. Task
	// fields are clamped far below this at ingest; anything bigger is
	// a corrupt or hostile file.
	maxLineBytes = 1 << 20
)

// ErrChecksumMismatch reports that a snapshot's payload does not match
// the checksum recorded in its trailer.
var ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")

// header is the first line of a snapshot. TaskCount tells the reader
// exactly how many task lines follow, which is how it knows the next
// line after them is the trailer.
type header struct {
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	TaskCount int       `json:"task_count"`
}

// trailer is the last line. Checksum is the hex BLAKE3 hash of every
// preceding uncompressed byte, newlines included.
type trailer struct {
	Checksum string `json:"checksum"`
}

// Write encodes tasks as a snapshot on w: a zstd stream of JSON lines
// with a header, one line per task, and an integrity trailer.
func Write(w io.Writer, tasks []task.Task, createdAt time.Time) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("snapshot: creating compressor: %w", err)
	}
	if err := writeBody(zw, tasks, createdAt); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("snapshot: flushing compressor: %w", err)
	}
	return nil
}

func writeBody(zw io.Writer, tasks []task.Task, createdAt time.Time) error {
	hasher := blake3.New()
	hashed := io.MultiWriter(zw, hasher)

	hdr := header{
		Format:    formatName,
		Version:   formatVersion,
		CreatedAt: createdAt.UTC(),
		TaskCount: len(tasks),
	}
	if err := writeLine(hashed, hdr); err != nil {
		return err
	}
	for i := range tasks {
		if err := writeLine(hashed, tasks[i]); err != nil {
			return err
		}
	}

	// The trailer covers everything before it, so it bypasses the
	// hasher.
	sum := hasher.Sum(nil)
	return writeLine(zw, trailer{Checksum: hex.EncodeToString(sum)})
}

func writeLine(w io.Writer, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("snapshot: encoding line: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("snapshot: writing line: %w", err)
	}
	return nil
}

// Read decodes a snapshot from r and returns its tasks. It rejects
// unknown formats and versions, short payloads, and any stream whose
// checksum does not match the trailer.
func Read(r io.Reader) ([]task.Task, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening compressed stream: %w", err)
	}
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	hasher := blake3.New()

	line, err := nextLine(scanner)
	if err != nil {
		return nil, err
	}
	var hdr header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return nil, fmt.Errorf("snapshot: decoding header: %w", err)
	}
	if hdr.Format != formatName {
		return nil, fmt.Errorf("snapshot: not a task snapshot (format %q)", hdr.Format)
	}
	if hdr.Version != formatVersion {
		return nil, fmt.Errorf("snapshot: unsupported version %d (want %d)", hdr.Version, formatVersion)
	}
	if hdr.TaskCount < 0 {
		return nil, fmt.Errorf("snapshot: invalid task count %d", hdr.TaskCount)
	}
	hashLine(hasher, line)

	// Cap the preallocation; a corrupt count should not balloon memory
	// before the missing lines are noticed.
	tasks := make([]task.Task, 0, min(hdr.TaskCount, 4096))
	for i := 0; i < hdr.TaskCount; i++ {
		line, err := nextLine(scanner)
		if err != nil {
			return nil, err
		}
		var t task.Task
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("snapshot: decoding task %d: %w", i, err)
		}
		hashLine(hasher, line)
		tasks = append(tasks, t)
	}

	line, err = nextLine(scanner)
	if err != nil {
		return nil, err
	}
	var tr trailer
	if err := json.Unmarshal(line, &tr); err != nil {
		return nil, fmt.Errorf("snapshot: decoding trailer: %w", err)
	}
	if tr.Checksum != hex.EncodeToString(hasher.Sum(nil)) {
		return nil, ErrChecksumMismatch
	}
	return tasks, nil
}

func nextLine(scanner *bufio.Scanner) ([]byte, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("snapshot: reading: %w", err)
		}
		return nil, fmt.Errorf("snapshot: truncated: %w", io.ErrUnexpectedEOF)
	}
	return scanner.Bytes(), nil
}

// hashLine feeds a scanned line back through the hasher with the
// newline the scanner stripped.
func hashLine(h *blake3.Hasher, line []byte) {
	h.Write(line)
	h.Write([]byte{'\n'})
}

// Export writes every task in the store to a snapshot file at path and
// returns the number of tasks written. The file lands atomically: a
// temporary sibling is written, fsynced, and renamed into place.
func Export(ctx context.Context, store *taskstore.Store, clk clock.Clock, path string) (int, error) {
	tasks, err := store.List(ctx, taskstore.Filter{})
	if err != nil {
		return 0, fmt.Errorf("snapshot: listing tasks: %w", err)
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("snapshot: creating temporary file: %w", err)
	}

	if err := Write(file, tasks, clk.Now()); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return 0, err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return 0, fmt.Errorf("snapshot: syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return 0, fmt.Errorf("snapshot: closing temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return 0, fmt.Errorf("snapshot: renaming into place: %w", err)
	}

	// Sync the parent directory so the rename survives power loss.
	if parent, err := os.Open(filepath.Dir(path)); err == nil {
		parent.Sync()
		parent.Close()
	}
	return len(tasks), nil
}

// Import loads a snapshot file and upserts its tasks into the store by
// ID. Tasks already in the store but absent from the snapshot are left
// alone. It returns the number of tasks restored.
func Import(ctx context.Context, store *taskstore.Store, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("snapshot: opening %s: %w", path, err)
	}
	defer file.Close()

	tasks, err := Read(file)
	if err != nil {
		return 0, err
	}
	return store.Restore(ctx, tasks)
}
