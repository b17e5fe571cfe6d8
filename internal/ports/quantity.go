package ports

// QuantityParser parses a human-readable quantity flag (e.g. "2M" polygons,
// "10" recursion levels) into a plain count, the CLI-facing port the
// teacher's size parser was adapted from.
type QuantityParser interface {
	Parse(spec string) (int64, error)
}
