// Package nav implements sequential chunk navigation with boundary
// clamping.
package nav

// Direction selects how Navigate moves through the chunk list.
type Direction string

const (
	First    Direction = "first"
	Previous Direction = "previous"
	Next     Direction = "next"
	Last     Direction = "last"
)

// Valid reports whether d is a recognized direction.
func (d Direction) Valid() bool {
	switch d {
	case First, Previous, Next, Last:
		return true
	}
	return false
}

// Navigate computes the target chunk index for a move. current is the
// active index, count the number of chunks. The result is always
// clamped into [0, count-1]; a move past either end lands on that end,
// so navigating next from the last chunk or previous from the first is
// a no-op. count <= 0 returns current unchanged.
func Navigate(dir Direction, current, count int) int {
	if count <= 0 {
		return current
	}

	target := current
	switch dir {
	case First:
		target = 0
	case Previous:
		target = current - 1
	case Next:
		target = current + 1
	case Last:
		target = count - 1
	}

	if target < 0 {
		target = 0
	}
	if target > count-1 {
		target = count - 1
	}
	return target
}

// AtStart reports whether current is the first chunk.
func AtStart(current int) bool { return current <= 0 }

// AtEnd reports whether current is the last chunk.
func AtEnd(current, count int) bool { return count > 0 && current >= count-1 }
