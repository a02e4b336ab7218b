// Package toolchain probes the prerequisite tools a host needs before
// the stack can run, and brings missing ones up to requirement through
// the platform package manager.
//
// Each prerequisite is described declaratively by a Spec: candidate
// binary names, how to ask for the version, how to recognize the
// version in the output, the minimum acceptable version, and the
// per-manager package identifiers. Probe and Ensure operate on specs,
// so adding a prerequisite is a data change, not a code change.
package toolchain
