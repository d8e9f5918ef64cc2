// Package graph holds the live node store of a trace and the read-only
// snapshots handed to renderers.
//
// Storage is sparse: nodes are keyed by caller-chosen integer ids in a hash
// map and ids may be reused once their owner has been removed. Nothing here
// assumes id density.
//
// Adjacency is kept as sets. Destinations and origins are stored sorted and
// de-duplicated, so two stores holding the same graph compare equal by value
// no matter the order edges were installed in.
//
// INVARIANT (symmetry): m is in n.Destinations exactly when n is in
// m.Origins. Link, Unlink and Detach preserve it. Put does not: callers
// that install records with adjacency must either link explicitly or call
// RecomputeOrigins afterwards.
package graph
