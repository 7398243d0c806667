// Package recorder queues audit records and writes them to an
// audit.Storage from a single background worker.
//
// Record never blocks the request path. When the queue is full the record
// is dropped and counted; Close drains whatever is still queued.
package recorder
