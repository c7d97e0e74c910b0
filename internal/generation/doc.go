// Package generation defines the content shapes produced by the language
// model (lessons, book outlines and chapter bodies) and the Generator
// boundary the background jobs call. Provider adapters live under
// internal/platform; output repair lives in the repair subpackage.
package generation
