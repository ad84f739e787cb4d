// Package marketgate is the market-data access layer of a portfolio tracker.
//
// It sits between the application (route handlers, reports, the CLI) and the
// third-party market-data providers, and shields both sides from each other:
//   - Request Scheduling: upstream calls are queued by priority and admitted
//     against a trailing-window request budget, with automatic retries when the
//     provider throttles (see package scheduler).
//   - Response Caching: results are memoized for a short time-to-live keyed by
//     an order-independent description of the request (see package cache).
//   - Snapshot Gateway: arbitrary symbol lists are split into provider-sized
//     batches, failed batches degrade to per-symbol requests, and partial
//     failures are reported instead of aborting the call (see package gateway).
//
// This package holds the domain types shared by all of them: snapshots, quotes,
// bars, the exchange calendar and the errors a provider may return.
package marketgate
