// Package logging provides structured logging for secretsguard.
//
// Logger wraps Zap with context-aware methods. Every entry picks up
// correlation fields from the context (OpenTelemetry trace and span IDs, the
// repository under check and the workflow document being scanned).
//
// Logs are written to stderr. Stdout is reserved for GitHub Actions workflow
// commands, which the runner parses line by line.
//
// Usage:
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), os.Stderr)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = logger.Sync() }()
//
//	ctx = logging.WithRepository(ctx, "acme/widgets")
//	logger.Info(ctx, "listing repository secrets")
//
// Secret values never reach the output. Wrap tokens in config.Secret and log
// them with logging.Secret, and field names such as "token" or "authorization"
// are redacted by the encoder regardless of how they were added. Secret names
// are not sensitive and are logged under "secret_name".
//
// Tests use NewTestLogger to assert on emitted entries:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "document scanned", zap.Int("references", 3))
//	tl.AssertField(t, "document scanned", "references", int64(3))
package logging
