// Package telemetry provides Prometheus metrics and OpenTelemetry spans for
// the binding engine.
//
// Metrics collected:
//   - bindkit_bindings_applied_total: handlers applied, by handler name
//   - bindkit_nodes_cleaned_total: nodes whose state was discarded
//   - bindkit_expression_evaluations_total: evaluations, by mode
//   - bindkit_exceptions_total: reported errors, by kind
//   - bindkit_apply_duration_seconds: ApplyBindings duration
//
// A nil *Metrics is valid and records nothing.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	engine := binding.New(binding.WithMetrics(m))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package telemetry
