// Package services is the typed caller-side facade over the RPC
// client. An HTTP layer supplies arguments and receives decoded results
// or errors; authentication tokens, input validation, and transport
// belong to that layer, not here. Every method is exactly one
// fire-and-await exchange.
package services
