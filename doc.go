// Package pacer is a programmable load generator: it drives a user-defined
// scenario against a target while automatically discovering the
// transactions-per-second and worker concurrency that satisfy one or more
// simultaneous constraints — a TPS ceiling, a maximum error rate, a
// maximum tail latency.
//
// A scenario is built with Scenario, configured with the chainable
// constraint methods on Builder, and run with Run:
//
//	stats, err := pacer.Scenario("checkout", func(ctx context.Context) error {
//		return callCheckout(ctx)
//	}).TPS(5000).Duration(30 * time.Second).Run(ctx)
package pacer
