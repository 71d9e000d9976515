package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/tree"
)

// ReadJSON decodes a JSON family tree from r into a new store.
//
// The input must be a JSON object in the format described in the package
// documentation. Records that reference unknown persons or events, repeat
// an existing record or carry unparseable ids are dropped and counted in
// the returned report rather than failing the whole load. Every loaded node
// is pinned at its stored position.
//
// ReadJSON returns an INVALID_FORMAT error if the document is not valid
// JSON or does not have the expected shape. ReadJSON does not close r.
func ReadJSON(r io.Reader, opts ...tree.Option) (*tree.Store, tree.LoadReport, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, tree.LoadReport{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	s, report := doc.Store(opts...)
	return s, report, nil
}

// ImportJSON reads a JSON file at path and returns the decoded store.
// A missing file is reported as NOT_FOUND_FILE.
func ImportJSON(path string, opts ...tree.Option) (*tree.Store, tree.LoadReport, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, tree.LoadReport{}, err
	}
	defer f.Close()
	return ReadJSON(f, opts...)
}

func openFile(path string) (*os.File, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
