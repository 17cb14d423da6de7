package negotiate

// ETagFormat controls how an entity tag token is written to the wire.
// Incoming tags are unquoted by freshness.FromHeader, so either format
// round-trips.
type ETagFormat int

const (
	// Strong writes "token".
	Strong ETagFormat = iota

	// Weak writes W/"token".
	Weak
)

// Format quotes token according to f.
func (f ETagFormat) Format(token string) string {
	quoted := `"` + token + `"`
	if f == Weak {
		return "W/" + quoted
	}
	return quoted
}
