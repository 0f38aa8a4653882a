package sqlite

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"

	"github.com/beamline-data/fluence.report/internal/fluence"
)

// serializeSnapshot compresses a map snapshot using gob encoding and gzip
// compression.
func serializeSnapshot(snap *fluence.MapSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(snap); err != nil {
		gz.Close()
		return nil, fmt.Errorf("gob encode error: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip close error: %w", err)
	}
	return buf.Bytes(), nil
}

// deserializeSnapshot decodes a blob written by serializeSnapshot.
func deserializeSnapshot(blob []byte) (*fluence.MapSnapshot, error) {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("gunzip error: %w", err)
	}
	defer gz.Close()

	var snap fluence.MapSnapshot
	dec := gob.NewDecoder(gz)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("gob decode error: %w", err)
	}
	return &snap, nil
}
