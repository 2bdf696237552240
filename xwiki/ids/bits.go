package ids

import "fmt"

const (
	// BitsCollisionCount is the width of the collision count field.
	BitsCollisionCount = 2
	// BitsObjectCount is the width of the object count field.
	BitsObjectCount = 12
	// BitsCount is the width of both count fields together.
	BitsCount = BitsCollisionCount + BitsObjectCount

	// MaxCollisionCount is the highest collision count an id can carry.
	MaxCollisionCount = 1<<BitsCollisionCount - 1
	// MaxObjectCount is the highest object count an id can carry.
	MaxObjectCount = 1<<BitsObjectCount - 1
)

// andifyLeft pads the bits above the lowest bits of value with ones.
func andifyLeft(value uint64, bits uint) uint64 {
	return value | (^uint64(0) << bits)
}

// andifyRight pads the lowest bits of value with ones.
func andifyRight(value uint64, bits uint) uint64 {
	return value | ^(^uint64(0) << bits)
}

// unzero remaps a value whose bits above the lowest bits are all zero to the
// smallest value with a non-zero upper part, keeping the lower bits.
func unzero(value uint64, bits uint) uint64 {
	if value>>bits != 0 {
		return value
	}
	lowMask := ^(^uint64(0) << bits)
	return ((value>>bits)+1)<<bits | value&lowMask
}

func verifyCount(count int, bits uint) error {
	if count < 0 || count >= 1<<bits {
		return fmt.Errorf("%w: %d does not fit in %d bits", ErrCountOutOfRange, count, bits)
	}
	return nil
}

// ExtractCollisionCount returns the collision count stored in id.
func ExtractCollisionCount(id int64) int {
	return int((uint64(id) >> BitsObjectCount) & MaxCollisionCount)
}

// ExtractObjectCount returns the object count stored in id.
func ExtractObjectCount(id int64) int {
	return int(uint64(id) & MaxObjectCount)
}
