package prefix

import "fmt"

// sizeUnits are tried in order; anything that is still >= 1024 GB is
// printed in TB.
var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders n with binary scaling and two decimals, e.g. "1.50 KB".
// The threshold is re-checked after each division so that values at powers
// of 1024 switch units exactly there.
func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range sizeUnits {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}
