// Package notifications delivers progress events to an external webhook.
//
// The default implementation POSTs a JSON array containing one event object
// to the configured URL and gracefully degrades to a no-op when no webhook is
// configured. Delivery is best-effort: callers log failures and move on, so a
// dead sink never blocks progress bookkeeping.
//
// Extend this package if you need alternative transports; callers depend only
// on the Service interface.
package notifications
