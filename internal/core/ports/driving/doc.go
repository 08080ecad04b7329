// Package driving declares what the CLI, the MCP server and the file
// watcher call into. The implementations live in internal/core/services.
package driving
