// Package html provides a Normaliser implementation for HTML documents.
// It tokenises the page and keeps only visible text, dropping scripts,
// styles and other hidden elements. The document language comes from
// the lang attribute of the root element.
package html
