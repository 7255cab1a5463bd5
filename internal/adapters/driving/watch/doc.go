// Package watch imports catalog dumps dropped into a directory.
//
// Files named categories.xml, colors.xml, parts.xml or sets.xml trigger a
// pass for their table once writes to them settle. A pass that collides
// with one already running for the same table is retried after another
// quiet period.
package watch
