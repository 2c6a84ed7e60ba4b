// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be
// normalized comes back empty (phones) or unchanged, and the validator
// reports it.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number])
//   - Names: trimmed, inner whitespace collapsed
//   - Emails and enumerations: trimmed and lowercased
//   - Slices: normalized, empties and duplicates dropped
package sanitizer
