// Package dispatch implements the cancellable bulk-send task engine.
//
// A task is one ordered list of messages dispatched sequentially to one
// target through one connected session. Each running task is owned by a
// single background goroutine; the only task field any other caller may
// touch is the cancellation flag, which the loop polls at sub-second
// granularity. Terminal tasks stay queryable for a retention window, then
// are purged from the registry.
package dispatch
