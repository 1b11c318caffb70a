package ml

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Save gob-encodes a whole model object to path. No versioning; the reader
// must decode into the same concrete type.
func Save(path string, model interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(model); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load decodes a model written by Save into the value pointed to by into.
func Load(path string, into interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(into); err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	return nil
}
