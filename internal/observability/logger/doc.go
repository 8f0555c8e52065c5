// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: Una sola instancia global inicializada con Init().
//   - Context Scoping: cada flujo de autorización puede llevar su propio
//     logger "scoped" con campos adicionales (flow_id, provider, account)
//     sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//
// # Secret hygiene
//
// Por este logger pasan flujos que manejan tokens, verifiers y códigos de
// autorización. NINGUNO de esos valores se loguea: solo tags de la
// taxonomía de errores y contexto no-secreto (provider, account id
// enmascarado, HTTP status, código de error del provider).
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   os.Getenv("APP_ENV"),   // "dev" o "prod"
//	    Level: os.Getenv("LOG_LEVEL"), // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// En componentes (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("token refreshed", logger.Provider(p), logger.Account(id))
package logger
