package validate

// findObjects returns every top-level JSON object in s, in order. Braces inside strings
// are ignored, and strings are only tracked inside an object so stray quotes in the
// surrounding prose do not derail the scan.
//
// Scanning bytes is safe for the ASCII delimiters: UTF-8 never reuses them inside
// multi-byte sequences.
func findObjects(s string) []string {
	var candidates []string
	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return candidates
}
