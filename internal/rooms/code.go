package rooms

// Room codes are short, human-typable identifiers players read out loud or
// paste to a friend. Crockford's base32 alphabet avoids the ambiguous
// I/L/O/U characters.
const (
	codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	codeLength   = 6
)

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// generateCode draws a fresh candidate code. Uniqueness is enforced by the
// registry, which retries on collision under its write lock.
func generateCode(r RandSource) string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[r.IntN(len(codeAlphabet))]
	}
	return string(buf)
}

// ValidCode reports whether a client-supplied room code has the right
// shape. It does not check existence.
func ValidCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		found := false
		for j := 0; j < len(codeAlphabet); j++ {
			if code[i] == codeAlphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
