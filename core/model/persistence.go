package model

import (
	"encoding/json"
	"io"
	"os"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// SaveModel writes a model snapshot to a file as indented JSON.
//
// Example:
//
//	snap := clf.Snapshot()
//	err := model.SaveModel(snap, "softmax.json")
func SaveModel(model any, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create model file")
	}
	// A failed Close can drop buffered bytes, so it must surface.
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close model file")
		}
	}()

	return SaveModelToWriter(model, file)
}

// LoadModel reads a model snapshot from a JSON file into model, which must be
// a pointer.
//
// Example:
//
//	var snap model.ModelSnapshot
//	err := model.LoadModel(&snap, "softmax.json")
func LoadModel(model any, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open model file")
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter writes a model snapshot to w as indented JSON.
func SaveModelToWriter(model any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(model), "failed to encode model")
}

// LoadModelFromReader reads a model snapshot from r into model, which must be
// a pointer.
func LoadModelFromReader(model any, r io.Reader) error {
	return errors.Wrap(json.NewDecoder(r).Decode(model), "failed to decode model")
}
