package pipeline

// Operation computes the new state of an item from its prior state and the
// aux payload of the transaction. The engine masks the result to the state
// width.
type Operation func(prior, aux uint64) uint64

// CancelPredicate decides at write-back whether the write of a transaction
// is suppressed. A cancelled transaction leaves the item unchanged, still
// retires and still emits a result.
type CancelPredicate func(index, prior, value, aux uint64) bool

// Increment adds one.
func Increment(prior, _ uint64) uint64 {
	return prior + 1
}

// Identity returns the prior state.
func Identity(prior, _ uint64) uint64 {
	return prior
}

// AddAux adds the aux payload.
func AddAux(prior, aux uint64) uint64 {
	return prior + aux
}

// MaxAux keeps the larger of the prior state and the aux payload.
func MaxAux(prior, aux uint64) uint64 {
	return max(prior, aux)
}

// SaturatingIncrement adds one up to limit.
func SaturatingIncrement(limit uint64) Operation {
	return func(prior, _ uint64) uint64 {
		if prior >= limit {
			return limit
		}
		return prior + 1
	}
}

// Affine returns prior*mul + aux. It does not commute across transactions
// with different aux, so it exposes any reordering of same-index updates.
func Affine(mul uint64) Operation {
	return func(prior, aux uint64) uint64 {
		return prior*mul + aux
	}
}

// NeverCancel is the default cancel predicate.
func NeverCancel(_, _, _, _ uint64) bool {
	return false
}

// CancelUnchanged suppresses writes that would store the prior state again.
func CancelUnchanged(_, prior, value, _ uint64) bool {
	return prior == value
}

// CancelWhen adapts a predicate over the prior and updated state.
func CancelWhen(f func(prior, value uint64) bool) CancelPredicate {
	return func(_, prior, value, _ uint64) bool {
		return f(prior, value)
	}
}
