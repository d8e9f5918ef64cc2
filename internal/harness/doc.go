// Package harness runs scripted playback scenarios against traces.
//
// A scenario is a YAML file naming a trace (a document on disk or a
// built-in sample), a list of steps and a list of assertions:
//
//	name: abc-remove
//	description: Removing c and undoing it restores the graph
//	document: ../documents/abc.json
//	steps:
//	  - next: 1
//	  - select: [0, 1]
//	assertions:
//	  - type: absent
//	    node: 2
//	  - type: masked
//	    ids: [0, 1]
//	  - type: round_trip
//
// Steps are next N, undo N, seek P, select [a, b] and clear. Every
// scenario starts from a freshly built trace at counter 0, so scenarios are
// independent and deterministic.
//
// RunWithGolden additionally compares the final dump (masked when a
// selection is active) with testdata/golden/{name}.golden using goldie.
package harness
