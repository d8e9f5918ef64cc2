// Package ir provides the data model shared by every tracegraph package.
//
// This package contains type definitions plus canonical serialization. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the data model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Node ids are caller-chosen ints and may be sparse or negative
//   - Adjacency lists are sets; order carries no meaning in a live node
//   - A nil field in a ChangeNode means "not supplied", never "empty"
//   - Causers are provenance only and are never structurally consumed
//   - Digests use canonical JSON and BLAKE3 with domain separation
package ir
