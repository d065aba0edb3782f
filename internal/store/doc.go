// Package store is the register's local durable queue of pending sales.
//
// A sale that could not be written to the remote service is saved here as a
// JSON payload together with a store-generated local id and the time it was
// queued. The sync engine reads the queue in local id order, replays each
// entry and removes it only after the remote service accepted it.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Every operation opens and closes its own connection. Failures to reach
// the database are wrapped with ErrUnavailable.
package store
