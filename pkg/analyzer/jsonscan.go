package analyzer

// FirstJSONObject returns the first balanced {...} span in s. The scanner is
// string- and escape-aware, so braces inside JSON string values do not affect
// the depth count. It reports false when no balanced object exists.
func FirstJSONObject(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		if end, ok := scanObject(s, start); ok {
			return s[start : end+1], true
		}
	}
	return "", false
}

// scanObject scans a candidate object beginning at s[start] == '{' and
// returns the index of its closing brace.
func scanObject(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
