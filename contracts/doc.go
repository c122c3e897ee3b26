// Package contracts defines the wire types exchanged between the
// itemvault front end and the itemvault worker.
//
// This package includes:
//   - Request/Response: the envelopes carried on the request and
//     response queues, matched by correlation id
//   - Operation: the closed set of operation tags
//   - Operation payloads: one record per operation
//   - Result: the generic outcome record produced by worker handlers
//
// Everything here is JSON on the wire with application/json content
// type. Envelopes are immutable once published.
package contracts
