// Package edit is the interactive edit protocol for procedural primitives.
//
// A Session holds the current mode, the typed parameters and the mouse state
// for one solid. SetEditMode selects a mode; Edit applies it with the typed
// parameters and EditXY with a mouse position. Every solid supports the
// scale, translate and rotate modes; each family (EBM, VOL, METABALL, TOR)
// adds its own modes through Solid.Handlers. Each mode checks the exact
// number of parameters it takes and rejects the call without touching the
// solid when it does not match.
//
// User errors come back as *Error and are also passed to the Log callback.
package edit
