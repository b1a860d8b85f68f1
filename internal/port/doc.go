// Package port resolves the local port the launcher exposes and lists the
// LAN addresses on which that port is reachable from other devices.
//
// Resolution precedence is fixed:
//
//	positional argument > config file > model.DefaultPort (8501)
//
// The package never probes the port itself. Whether a service is
// listening there is the tunneling process's concern.
package port
