// Package view projects engine state into rows for display.
//
// Project is a pure function: it joins the host configuration, the template
// catalog, observed runtime status and pending user input by server name.
// Only lookups happen here; install validation is mirrored for display and
// enforced again by the lifecycle controller.
package view
