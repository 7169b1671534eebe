package uri

import "strings"

const (
	unreserved = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._~"
	subDelims  = "!$&'()*+,;="
)

var (
	userInfoAllowed = allowSet(unreserved + subDelims + ":")
	pathAllowed     = allowSet(unreserved + subDelims + ":@/")
	queryAllowed    = allowSet(unreserved + subDelims + ":@/?")
)

func allowSet(chars string) [256]bool {
	var set [256]bool
	for i := 0; i < len(chars); i++ {
		set[chars[i]] = true
	}
	return set
}

const upperHex = "0123456789ABCDEF"

// encode 는 allowed 밖의 바이트를 %XX 로 인코딩합니다. 이미 올바른 %XX 시퀀스는 그대로 둡니다.
func encode(s string, allowed [256]bool) string {
	clean := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowed[c] || (c == '%' && isEscape(s, i)) {
			continue
		}
		clean = false
		break
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowed[c] || (c == '%' && isEscape(s, i)) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func isEscape(s string, i int) bool {
	return i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2])
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
