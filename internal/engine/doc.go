// Package engine replays queued offline sales to the remote service.
//
// A sync pass reads the whole local queue, posts each sale in local id order
// through the same Poster used by live checkout, and removes an entry only
// after the remote service accepted it. A failed entry stays queued and the
// pass continues with the next one.
//
// # Concurrency
//
//   - Sync and SyncNow may be called from any goroutine. Concurrent callers
//     share one in-flight pass, so an entry is never replayed twice at once.
//   - Items inside a pass are replayed strictly one after another.
//   - Run is the background loop. It wakes on Trigger and on a retry ticker
//     and must be called from exactly one goroutine.
//
// # Pass hooks
//
// Every finished pass is reported to the hooks registered with OnPass. The
// connectivity monitor uses this to refresh its pending count.
package engine
