package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/tree"
)

// WriteJSON encodes the snapshot as indented JSON and writes it to w.
// Output is deterministic: persons and events are keyed by id and sorted,
// edge lists keep store order. The result can be re-imported with
// [ReadJSON] for a lossless round trip.
func WriteJSON(snap tree.Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(snap)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the snapshot to a JSON file at path.
func ExportJSON(snap tree.Snapshot, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(snap, w) })
}

// writeFile writes through a temporary file in the target directory and
// renames it into place, so a failed encode never truncates an existing
// tree.
func writeFile(path string, write func(io.Writer) error) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
