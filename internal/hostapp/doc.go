// Package hostapp restarts the host desktop application and detects
// whether it is installed.
package hostapp
