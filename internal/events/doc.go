// Package events publishes orchestrator state transitions. LogObserver writes
// them to the context logger; SocketIO streams them to a socket.io server as
// "phase" events for live dashboards.
package events
