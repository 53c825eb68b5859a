package converters

// github.com/xeonx/proj4 compiles the Proj4 C sources but does not declare
// the libm link dependency they need; declare it here so binaries that use
// this package link without extra CGO_LDFLAGS.

// #cgo LDFLAGS: -lm
import "C"
