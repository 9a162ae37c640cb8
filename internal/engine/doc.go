// Package engine runs undoable actions against a drillstore document.
//
// An action is one logical user operation ("create pages", "swap two
// positions"). The engine gives every action:
//
//   - one SQL transaction, committed only if the whole action succeeds
//   - one fresh undo group, so the action undoes and redoes as a unit
//   - a token (UUIDv7 in production) recorded on every row image it
//     captures, for tracing history back to the action that wrote it
//
// Action bodies write exclusively through the Mutation Layer
// (Tx.CreateItems, Tx.UpdateItems, Tx.DeleteItems). Each call verifies its
// ids before writing, stamps timestamps, and on failure reverts exactly
// the images it wrote, so callers never see a half-applied call.
//
// CONCURRENCY:
//
// Single writer. Actions are serialized by a mutex and cannot be cancelled
// once started. Reads through Store() run outside actions and observe
// only committed groups.
//
// ERRORS:
//
// Every failure surfaces as *Error with a Code; public entry points wrap
// outcomes in Result[T]. Broken invariants are logged at error level as
// "document may be corrupted".
package engine
