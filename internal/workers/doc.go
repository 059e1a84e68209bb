// Package workers implements the built-in worker processes shipped
// with msp. Each worker follows the process contract: it receives its
// task and wiring as flags, narrates progress into its scratchpad, and
// prints a single JSON result on stdout.
package workers
