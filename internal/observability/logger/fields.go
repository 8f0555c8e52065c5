package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - AUTORIZACIÓN
// =================================================================================

// Provider crea un campo para el nombre del identity provider.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// Account crea un campo para el account id. Si el id es un email, pasarlo
// antes por util.MaskEmail.
func Account(v string) zap.Field {
	return zap.String("account", v)
}

// FlowID crea un campo para correlacionar los pasos de un intento de
// autorización.
func FlowID(v string) zap.Field {
	return zap.String("flow_id", v)
}

// Scope crea un campo para el scope devuelto por el provider.
func Scope(v string) zap.Field {
	return zap.String("scope", v)
}

// ProviderCode crea un campo para el código de error OAuth del provider
// (access_denied, invalid_grant, …). Es el único detalle del provider que
// se loguea.
func ProviderCode(v string) zap.Field {
	return zap.String("provider_code", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP / SISTEMA
// =================================================================================

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración de una operación.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
