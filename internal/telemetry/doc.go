// Package telemetry installs OpenTelemetry trace and metric providers that
// export over OTLP.
//
// Telemetry is off unless an OTLP endpoint is configured. When off, the
// global no-op providers stay in place and instrumented code pays nothing.
package telemetry
