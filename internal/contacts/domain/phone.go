package domain

import "strings"

// UserSuffix is the JID server of individual accounts.
const UserSuffix = "@s.whatsapp.net"

// NormalizeJID maps a phone number or JID to the canonical JID used as blocklist key.
// Any server suffix and device tag are dropped and only digits are kept. For Brazil (country
// code "55"), the 13-digit mobile form with the extra leading 9 is collapsed into the 12-digit
// form, so both spellings of the same number map to one contact.
func NormalizeJID(raw, countryCode string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrInvalidNumber
	}
	if countryCode == "55" && len(digits) == 13 && strings.HasPrefix(digits, "55") && digits[4] == '9' {
		digits = digits[:4] + digits[5:]
	}
	return digits + UserSuffix, nil
}

// UserPart returns the part of a JID before the server suffix and device tag.
func UserPart(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		jid = jid[:i]
	}
	if i := strings.IndexByte(jid, ':'); i >= 0 {
		jid = jid[:i]
	}
	return jid
}
