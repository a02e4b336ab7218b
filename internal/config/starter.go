package config

import _ "embed"

// Starter is the commented example configuration written by
// "preflight init".
//
//go:embed starter.yaml
var Starter []byte
