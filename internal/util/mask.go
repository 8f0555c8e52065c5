package util

import (
	"strconv"
	"strings"
)

// MaskEmail enmascara un email para logs: "a…@g….com". Los account ids de
// Wixen son emails; nunca van completos a un log.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskToken reduce un token opaco a un marcador de longitud ("tok[43]").
// No conserva ningún prefijo: hasta unos pocos chars de un access token son
// material sensible.
func MaskToken(s string) string {
	if s == "" {
		return ""
	}
	return "tok[" + strconv.Itoa(len(s)) + "]"
}
