// Package nmg implements the non-manifold geometry topology store.
//
// A Model owns regions; a region owns shells; a shell owns face-uses, wire
// loop-uses, wire edge-uses and at most one lone vertex-use. Every undirected
// entity (face, loop, edge, vertex) is shared by one or more "use" records
// that place it in a specific topological context. All records live in arenas
// owned by the Model and are referred to by typed integer handles; the zero
// handle means "none".
//
// The store performs no defensive validation of handles: operating on a
// dangling, killed or zero handle panics. Callers validate their input before
// calling in.
package nmg
