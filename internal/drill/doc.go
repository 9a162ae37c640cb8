// Package drill implements the document's feature operations: pages,
// marchers, marcher placements, shapes and shape membership.
//
// Every exported write runs as one engine action and returns an
// engine.Result. Cascades (marcher-page rows following marchers and pages,
// shape membership following deletes, placements following shape
// geometry) run inside the same action, so one undo reverts the whole
// operation.
//
// The lower-case counterparts of each operation take an *engine.Tx and
// write with engine.UseCurrentGroup, which is how operations compose.
package drill
