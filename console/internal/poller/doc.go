// Package poller refreshes board fields from the REST API on a fixed
// interval. Every fetcher runs once at start and then on each tick; a
// failed fetch is logged and counted and waits for the next tick.
package poller
