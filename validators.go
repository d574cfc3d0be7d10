package respline

var whitespace = [256]bool{
	' ':  true,
	'\r': true,
	'\n': true,
	'\t': true,
}

// ValidateNotEmpty validate that line contains at least one non-whitespace character
func ValidateNotEmpty() Validator {
	return func(line []byte) bool {
		for _, b := range line {
			if !whitespace[b] {
				return true
			}
		}
		return false
	}
}

// ValidatePrefix returns true if the line starts with one of prefixes.
// RESP type indicators are '+', '-', ':', '$' and '*'.
func ValidatePrefix(prefixes ...byte) Validator {
	var allowed [256]bool
	for _, p := range prefixes {
		allowed[p] = true
	}
	return func(line []byte) bool {
		return len(line) > 0 && allowed[line[0]]
	}
}

// ValidateMaxLength returns true if the line is no longer than n bytes
func ValidateMaxLength(n int) Validator {
	return func(line []byte) bool {
		return len(line) <= n
	}
}

// ValidateNoControl returns true if the line has no ASCII control bytes other than tab
func ValidateNoControl() Validator {
	return func(line []byte) bool {
		for _, b := range line {
			if (b < 0x20 && b != '\t') || b == 0x7f {
				return false
			}
		}
		return true
	}
}
