// Package board holds the console's merged view state: a thread-safe map
// from field name to the latest JSON value, the time it was observed and
// the producer that wrote it. Producers race freely; a write only lands if
// its timestamp is not older than the stored one. Run evicts fields that
// have not been refreshed within the TTL.
package board
