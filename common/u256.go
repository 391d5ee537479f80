package common

import "math/big"

// MaxU256 is the inclusive upper bound of the 256-bit unsigned integers used
// for ALF and token amounts throughout spec.md §3-4.
var MaxU256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// AddU256 adds a and b, reporting overflow past 2^256-1 instead of wrapping,
// as required by the BalanceOverFlow checks of spec.md §4.3.
func AddU256(a, b *big.Int) (sum *big.Int, overflow bool) {
	s := new(big.Int).Add(a, b)
	if s.Cmp(MaxU256) > 0 {
		return nil, true
	}
	return s, false
}

// SumU256 folds AddU256 across a slice, short-circuiting on the first
// overflow.
func SumU256(xs ...*big.Int) (sum *big.Int, overflow bool) {
	total := big.NewInt(0)
	for _, x := range xs {
		var of bool
		total, of = AddU256(total, x)
		if of {
			return nil, true
		}
	}
	return total, false
}

// MulU256 multiplies a and b (e.g. gasAmount*gasPrice), reporting overflow.
func MulU256(a, b *big.Int) (product *big.Int, overflow bool) {
	p := new(big.Int).Mul(a, b)
	if p.Cmp(MaxU256) > 0 {
		return nil, true
	}
	return p, false
}
