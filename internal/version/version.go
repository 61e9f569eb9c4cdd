// Package version holds the build version reported by the CLI.
package version

const Version = "0.3.0"
