// Package cgo groups the native bindings. Building without cgo, or without
// the tesseract tag, swaps each binding for a stub that reports it is
// unavailable, so the rest of the module never needs a C toolchain.
package cgo
