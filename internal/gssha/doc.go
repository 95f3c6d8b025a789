// Package gssha holds the pieces shared by every GSSHA file-format codec:
// the error taxonomy, parse diagnostics, replacement-parameter substitution,
// and numeric formatting helpers.
//
// # File Formats
//
// GSSHA model input files are fixed-grammar, line-oriented text files. Each
// line's first whitespace-delimited token (its discriminant) decides how the
// line is interpreted. Files are divided into keyword-introduced chunks by
// the tokenizer in the token subpackage, and each format family (channel
// network, mapping tables, precipitation, pipe network, gridded datasets)
// has its own package that interprets those chunks into typed records and
// serializes them back to the exact original byte layout.
//
// # Replacement Parameters
//
// Any numeric field in a model file may be replaced by a bracketed token
// such as [K_RIVER], referring to a named parameter used for multi-run
// calibration. On read the token is stored as the negated 1-based id of the
// matching parameter; on write the negative id is substituted back with the
// parameter's name. A token that matches no declared parameter is stored as
// the sentinel ReplaceNoValue and written back as [NO_VARIABLE]. The
// substitution is applied by every codec, before numeric parsing on the way
// in and before numeric formatting on the way out.
//
// # Diagnostics
//
// Parsers are pure: they never log or print. Recoverable oddities (a table
// referencing an undeclared index map, a structure type that is recognized
// but not materialized, a value that cannot be rendered in the expected
// numeric format) are reported as Diagnostics returned alongside the parsed
// record; fatal grammar violations are returned as errors wrapping
// ErrMalformedInput.
package gssha
