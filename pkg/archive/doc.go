// Package archive contains the pagination engine and run orchestrator.
//
// The engine walks a user's timeline newest-first through opaque cursors,
// filters items to the requested calendar month, and checkpoints after every
// page so interrupted runs resume instead of restarting. The orchestrator
// sequences accounts one at a time over a single shared quota and writes the
// final artifact once a run is exhausted.
package archive
