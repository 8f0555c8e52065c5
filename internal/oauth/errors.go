package oauth

import (
	"errors"
	"fmt"
)

// Taxonomía estable de errores del core de autorización. Los llamadores
// hacen match con errors.Is / errors.As; los mensajes nunca incluyen
// tokens, códigos de autorización, verifiers ni secrets.
var (
	// ErrUnknownProvider: el nombre de provider no está registrado.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidConfig: configuración incompleta o inválida (client_id
	// vacío, credenciales faltantes). El wrap nombra el campo.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrServerBindFailed: no se pudo bindear el puerto loopback.
	ErrServerBindFailed = errors.New("loopback server bind failed")

	// ErrBrowserLaunchFailed: el handler del OS no pudo abrir el browser.
	// Advisory: el flujo puede continuar si la URL llegó al usuario.
	ErrBrowserLaunchFailed = errors.New("browser launch failed")

	// ErrTimeout: expiró la espera del redirect de autorización.
	ErrTimeout = errors.New("authorization timed out")

	// ErrStateMismatch: el state del redirect no coincide con el esperado.
	ErrStateMismatch = errors.New("authorization state mismatch")

	// ErrMalformedResponse: respuesta 2xx del token endpoint sin
	// access_token o no parseable.
	ErrMalformedResponse = errors.New("malformed token endpoint response")

	// ErrNotAuthorized: no hay TokenSet almacenado para la cuenta.
	ErrNotAuthorized = errors.New("account not authorized")

	// ErrReauthorizationRequired: los tokens almacenados no pueden
	// refrescarse; hay que correr Authorize de nuevo.
	ErrReauthorizationRequired = errors.New("reauthorization required")

	// ErrCorruptStore: el blob almacenado existe pero no deserializa.
	ErrCorruptStore = errors.New("corrupt token store entry")

	// ErrNetwork: falla de transporte (DNS, TCP, TLS, read).
	ErrNetwork = errors.New("network error")

	// ErrStorage: falla de put/delete contra el credential store.
	ErrStorage = errors.New("token storage error")
)

// ProviderError carries the provider's own OAuth error code unmodified
// (e.g. "access_denied", "invalid_grant") plus its description.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("provider error: %s", e.Code)
	}
	return fmt.Sprintf("provider error: %s (%s)", e.Code, e.Description)
}

// ReauthRequired reports whether the provider error means the stored grant
// is permanently dead and the user must authorize again.
func (e *ProviderError) ReauthRequired() bool {
	return e.Code == "invalid_grant" || e.Code == "invalid_token"
}
