// Package ir provides the row-level value model shared by every layer of
// drillstore.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Column values are one of IRNull, IRInt, IRFloat, IRString
//   - Row images are serialized with MarshalCanonical so replay is byte-exact
//   - Free text is NFC-normalized at the serialization boundary
//   - Booleans are stored as 0/1 and only become bool in typed records
package ir
