// Package html provides a Normaliser implementation for HTML documents.
// It extracts readable text content from HTML, stripping tags, scripts and
// styles, and lifts <table> elements out as structured tables.
package html
