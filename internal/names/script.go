package names

// IsLikelyHanzi reports whether name contains any rune outside 7-bit ASCII.
// It is a byte-range heuristic, not a Unicode script check: accented Pinyin
// such as "Lǐ" also counts as Hanzi.
func IsLikelyHanzi(name string) bool {
	for _, r := range name {
		if r > 0x7F {
			return true
		}
	}
	return false
}
