// Package model defines the domain types for the preflight CLI.
//
// All entities here are transient: preflight keeps no state of its own.
// Tool status is re-probed from the host PATH on every run, and service
// state is reconstructed from the Docker API (via the labels Docker
// Compose writes on the containers it creates).
package model
