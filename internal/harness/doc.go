// Package harness runs translation scenarios described in YAML files.
//
// A scenario names a schema, a SQL query and the expected outcome:
//
//	name: select_where
//	description: selection under a projection
//	schema: ../schemas/shop.yaml
//	sql: SELECT name FROM Users WHERE age > 18
//	expect:
//	  valid: true
//	  ar: π[name](σ[age > 18](Users))
//
// Run translates the query with tracing enabled and checks every
// expectation, collecting all mismatches instead of stopping at the first.
// Scenarios run with a request ID derived from the scenario name, so the
// same scenario always produces the same response.
//
// Golden files capture the whole response (AR, steps and diagnostics) as
// text. RunWithGolden compares against testdata/golden/<name>.golden in
// tests; WriteGolden and CompareGolden serve the `sqlra test` command.
package harness
