// Package telemetry implements the in-process state-event hub.
//
// The controller publishes state-change notifications (strength, mode,
// effect and connection events) to the hub; the UI and plugin layers
// subscribe instead of being called back directly. The hub buffers the last
// N events so a subscriber attaching late can replay what it missed.
package telemetry
