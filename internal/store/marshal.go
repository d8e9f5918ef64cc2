package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/tracegraph/internal/ir"
)

// marshalDocument renders doc as canonical JSON and compresses it with zstd.
// The digest is computed over the same canonical bytes, so a body and its
// digest always agree.
func marshalDocument(doc ir.Document) (body []byte, digest string, err error) {
	canonical, err := ir.CanonicalDocument(doc)
	if err != nil {
		return nil, "", fmt.Errorf("marshal document: %w", err)
	}
	digest, err = ir.DocumentDigest(doc)
	if err != nil {
		return nil, "", fmt.Errorf("marshal document: %w", err)
	}

	var compressed bytes.Buffer
	encoder, err := zstd.NewWriter(&compressed)
	if err != nil {
		return nil, "", fmt.Errorf("marshal document: %w", err)
	}
	if _, err := encoder.Write(canonical); err != nil {
		encoder.Close()
		return nil, "", fmt.Errorf("marshal document: compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, "", fmt.Errorf("marshal document: compress: %w", err)
	}

	return compressed.Bytes(), digest, nil
}

// unmarshalDocument decompresses a stored body and checks it against the
// digest recorded next to it.
func unmarshalDocument(body []byte, digest string) (ir.Document, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return ir.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	defer decoder.Close()

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return ir.Document{}, fmt.Errorf("unmarshal document: decompress: %w", err)
	}

	var doc ir.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ir.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}

	got, err := ir.DocumentDigest(doc)
	if err != nil {
		return ir.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	if got != digest {
		return ir.Document{}, fmt.Errorf("unmarshal document: digest mismatch: stored %s, body %s", digest, got)
	}

	return doc, nil
}
