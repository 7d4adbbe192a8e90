// Package events provides the in-process event hub used to stream run
// lifecycle and batch progress events to subscribers such as the WebSocket
// server
package events
