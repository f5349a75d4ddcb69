package treesitter

// Default values
const (
	DefaultMaxChunkSize = 2000 // tokens
	CharsPerToken       = 4    // rough approximation
)

// MeasureFunc maps a byte slice to a size used for window packing. It
// must be monotonic under concatenation: measure(a+b) >= measure(a).
type MeasureFunc func(b []byte) int

// MeasureBytes measures a slice by its length.
func MeasureBytes(b []byte) int {
	return len(b)
}

// MeasureTokens approximates a token count as bytes per CharsPerToken,
// rounded up.
func MeasureTokens(b []byte) int {
	return (len(b) + CharsPerToken - 1) / CharsPerToken
}
