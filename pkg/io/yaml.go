package io

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/tree"
)

// ReadYAML decodes a YAML family tree. The document has the same shape as
// the JSON format and is loaded with the same leniency as [ReadJSON].
func ReadYAML(r io.Reader, opts ...tree.Option) (*tree.Store, tree.LoadReport, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return tree.New(opts...), tree.LoadReport{}, nil
		}
		return nil, tree.LoadReport{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	s, report := doc.Store(opts...)
	return s, report, nil
}

// ImportYAML reads a YAML file at path.
func ImportYAML(path string, opts ...tree.Option) (*tree.Store, tree.LoadReport, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, tree.LoadReport{}, err
	}
	defer f.Close()
	return ReadYAML(f, opts...)
}

// WriteYAML encodes the snapshot as YAML.
func WriteYAML(snap tree.Snapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(snap)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportYAML writes the snapshot to a YAML file at path.
func ExportYAML(snap tree.Snapshot, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteYAML(snap, w) })
}
