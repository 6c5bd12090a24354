package memutils

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// Number is any integer type that can be used for sizes, offsets and alignments
type Number interface {
	constraints.Integer
}

// CheckPow2 returns an error wrapping PowerOfTwoError if number is not zero or a power of two
func CheckPow2[T Number](number T, name string) error {
	if number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two.
// An alignment of 0 or 1 leaves value unchanged.
func AlignUp[T Number](value T, alignment T) T {
	if alignment <= 1 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// AlignDown rounds value down to the previous multiple of alignment, which must be a power of two.
func AlignDown[T Number](value T, alignment T) T {
	if alignment <= 1 {
		return value
	}
	return value &^ (alignment - 1)
}

// IsAligned reports whether value is a multiple of alignment
func IsAligned[T Number](value T, alignment T) bool {
	return AlignDown(value, alignment) == value
}

// Log2 returns the base-2 logarithm of a power-of-two value. Log2(0) is 0.
func Log2[T Number](value T) uint {
	var log uint
	for value > 1 {
		value >>= 1
		log++
	}
	return log
}
