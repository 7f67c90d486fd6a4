package constants

// IncompatiblePolicy decides what the bootstrapper does with a store it can
// neither open nor migrate.
type IncompatiblePolicy string

const (
	// PolicyFail aborts startup and leaves the store file untouched.
	PolicyFail IncompatiblePolicy = "fail"
	// PolicyReset deletes the store triplet and starts over with an empty store.
	PolicyReset IncompatiblePolicy = "reset"
)

// Valid reports whether p names a known policy.
func (p IncompatiblePolicy) Valid() bool {
	return p == PolicyFail || p == PolicyReset
}
