package manifest

import "strings"

// ValidNamespace reports whether name is a well-formed dotted namespace:
// one or more dot-separated identifiers, each starting with a letter or
// underscore. "app", "app.handlers" and "_vendor.lib2" are valid;
// "", ".app", "app.", "app..x" and "2fa.codes" are not.
func ValidNamespace(name string) bool {
	if name == "" {
		return false
	}
	for _, seg := range strings.Split(name, ".") {
		if !validSegment(seg) {
			return false
		}
	}
	return true
}

func validSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for i, r := range seg {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
