package mailauth

import (
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Identity son los claims de perfil que interesan para etiquetar la cuenta
// en la UI. Viene del id_token efímero del flujo de autorización; nunca se
// persiste el token, solo estos campos.
type Identity struct {
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	Sub           string
}

// FromIDToken extrae la identidad de un id_token SIN verificar la firma.
// El token llegó por el canal TLS directo con el provider en el exchange,
// así que acá solo se decodifica; no es input de autorización.
func FromIDToken(idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, errors.New("empty id_token")
	}
	tok, _, err := jwtv5.NewParser().ParseUnverified(idToken, jwtv5.MapClaims{})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims type")
	}
	return &Identity{
		Email:         strClaim(claims, "email"),
		EmailVerified: boolClaim(claims, "email_verified"),
		Name:          strClaim(claims, "name"),
		Picture:       strClaim(claims, "picture"),
		Sub:           strClaim(claims, "sub"),
	}, nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}
func boolClaim(m jwtv5.MapClaims, k string) bool {
	b, _ := m[k].(bool)
	return b
}
