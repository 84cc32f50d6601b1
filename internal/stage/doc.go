// Package stage implements the page transition machine: an ordered list of
// stages (idle cover, selection grid, detail content) with single-flight
// transitions. While an effect animates a transition the machine rejects
// further requests as silent no-ops; a generation-counted watchdog reclaims
// the machine when an effect never reports completion, so one stalled
// callback cannot permanently lock the page. Listeners observe state through
// immutable snapshots rather than shared mutable fields.
package stage
