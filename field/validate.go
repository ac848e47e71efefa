package field

import "fmt"

// Validate is the parity test. Splitting the rows below maxLine at every
// column pair that no piece can cross, each segment must have a multiple of
// four empty cells. A false result means the board can never be cleared; a
// true result proves nothing.
func Validate(f Field, maxLine int) bool {
	if maxLine < 0 || maxLine > MaxHeight {
		panic(fmt.Sprintf("validate with line %d", maxLine))
	}
	sum := maxLine - f.BlockCountOnX(0, maxLine)
	for x := 1; x < Width; x++ {
		empty := maxLine - f.BlockCountOnX(x, maxLine)
		if f.IsWallBetween(x, maxLine) {
			if sum%4 != 0 {
				return false
			}
			sum = empty
			continue
		}
		sum += empty
	}
	return sum%4 == 0
}
