// Package chain holds the primitives shared by the automator and its
// external dependencies: account addresses, clocks, the native-currency
// bank, and base-unit formatting.
package chain

// Address identifies an account on the ledger layer. Contract accounts
// (the automator itself, the token ledger, the exchange venue) and
// externally held accounts use the same identity space.
type Address string

// ZeroAddress is the null identity. It is never a valid owner or
// recipient.
const ZeroAddress Address = ""

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool { return a == ZeroAddress }

func (a Address) String() string { return string(a) }
