// Package app wires the simulation engine to its outer surfaces: topology
// loading and watching, the HTTP API, the health and metrics server and the
// socket.io relay. It is decoupled from any specific entrypoint like a CLI.
package app
