// Package formats provides parsers for terrain sector records (.csdat) and
// the texture containers that ship alongside them.
package formats

// Note: sector heights are decoded in sector.go
// Note: water records are parsed in water.go
// Note: XBT texture containers are unwrapped in xbt.go
