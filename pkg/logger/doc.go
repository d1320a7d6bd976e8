// Package logger is a thin factory around log/slog with functional options,
// helper attribute constructors for the licensing domain, and transparent
// injection of context values into every record.
//
//	log := logger.New(
//		logger.WithProduction("licensed"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.InfoContext(ctx, "license issued", logger.LicenseKey(key))
package logger
