package httpserver

import "time"

// ShutdownTimeout controls how long in-flight tool calls get to finish on
// SIGINT or SIGTERM.
var ShutdownTimeout = 15 * time.Second
