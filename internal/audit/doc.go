// Package audit implements the append-only command audit log.
//
// Every executed or dropped command and every timed-effect action is written
// as one JSON line with source, category, channel, action, outcome and a
// normalized result code.
package audit
