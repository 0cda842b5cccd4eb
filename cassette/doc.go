// Package cassette defines the canonical request/response model recorded to
// cassette files and the tagged YAML codec used to read and write them.
//
// A cassette is a stream of YAML documents separated by `---` lines; each
// document holds one request/response interaction. The model is deliberately
// decoupled from net/http so that recordings are stable across client
// libraries and Go releases.
package cassette
