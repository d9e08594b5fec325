package expression

import "regexp"

// lineBreak matches every line terminator variant. Two-byte forms come first
// so that "\r\n" and "\n\r" each count as a single break.
var lineBreak = regexp.MustCompile(`\r\n|\n\r|\n|\r`)

// Position converts a byte offset in text into a 1-indexed line and a
// 0-indexed column. The column counts bytes from the last line terminator
// before offset. Offsets past the end of text are clamped.
func Position(text string, offset int) (line, column int) {
	offset = min(max(offset, 0), len(text))
	prefix := text[:offset]

	breaks := lineBreak.FindAllStringIndex(prefix, -1)
	if len(breaks) == 0 {
		return 1, len(prefix)
	}
	last := breaks[len(breaks)-1]
	return len(breaks) + 1, len(prefix) - last[1]
}
