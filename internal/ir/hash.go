package ir

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"lukechampine.com/blake3"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainGraph    = "tracegraph/graph/v1"
	DomainDocument = "tracegraph/document/v1"
)

// hashWithDomain computes a BLAKE3-256 digest with domain separation.
// Format: BLAKE3(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := blake3.New(32, nil)
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GraphDigest computes a stable digest of a node set.
// Two graphs with the same ids, codes and adjacency sets hash identically,
// regardless of map iteration or list order.
func GraphDigest(nodes map[int]Node) (string, error) {
	obj := make(map[string]any, len(nodes))
	for id, n := range nodes {
		obj[strconv.Itoa(id)] = canonicalNode(n)
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("GraphDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// DocumentDigest computes a stable digest of a whole document, log included.
func DocumentDigest(doc Document) (string, error) {
	canonical, err := CanonicalDocument(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentDigest: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// CanonicalDocument renders a document as canonical JSON.
// Absent optional fields (nil code, nil lists) are omitted rather than
// emitted as null.
func CanonicalDocument(doc Document) ([]byte, error) {
	nodes := make(map[string]any, len(doc.Nodes))
	for k, n := range doc.Nodes {
		nodes[k] = canonicalNode(n)
	}

	mods := make([]any, len(doc.Modifications))
	for i, m := range doc.Modifications {
		obj := map[string]any{
			"type":    string(m.Type),
			"targets": sortedCopy(m.Targets, false),
		}
		if m.Causers != nil {
			obj["causers"] = sortedCopy(m.Causers, false)
		}
		if m.Change != nil {
			obj["change"] = canonicalChanges(m.Change)
		}
		mods[i] = obj
	}

	incs := make([]any, len(doc.Increments))
	for i, inc := range doc.Increments {
		incs[i] = map[string]any{"additions": canonicalChanges(inc.Additions)}
	}

	data, err := MarshalCanonical(map[string]any{
		"nodes":         nodes,
		"modifications": mods,
		"increments":    incs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// MustGraphDigest is like GraphDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustGraphDigest(nodes map[int]Node) string {
	d, err := GraphDigest(nodes)
	if err != nil {
		panic(err)
	}
	return d
}

func canonicalNode(n Node) map[string]any {
	return map[string]any{
		"code":         n.Code,
		"destinations": sortedCopy(n.Destinations, true),
		"origins":      sortedCopy(n.Origins, true),
	}
}

func canonicalChanges(changes []GraphChange) []any {
	out := make([]any, len(changes))
	for i, c := range changes {
		raw := map[string]any{}
		if c.Raw.Code != nil {
			raw["code"] = *c.Raw.Code
		}
		// Order of a change's lists is kept: it is how the author wrote it.
		if c.Raw.Destinations != nil {
			raw["destinations"] = sortedCopy(c.Raw.Destinations, false)
		}
		if c.Raw.Origins != nil {
			raw["origins"] = sortedCopy(c.Raw.Origins, false)
		}
		out[i] = map[string]any{"index": c.Index, "raw": raw}
	}
	return out
}

// sortedCopy copies ids, sorting them when the list is a set.
// The result is never nil so it always serializes as an array.
func sortedCopy(ids []int, sorted bool) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	if sorted {
		sort.Ints(out)
	}
	return out
}
