package petsim

import "github.com/jaswdr/faker/v2"

// Session tokens handed out by Login are drawn from this inclusive range.
const (
	minSessionToken = 1000000
	maxSessionToken = 9999999
)

// TokenSource yields integers in the inclusive range [min, max]. Tests supply
// a fixed source to assert on the exact login message.
type TokenSource interface {
	IntBetween(min, max int) int
}

// FixedToken is a TokenSource that always returns the same value.
type FixedToken int

func (f FixedToken) IntBetween(_, _ int) int {
	return int(f)
}

func defaultTokenSource() TokenSource {
	f := faker.New()
	return &f
}
