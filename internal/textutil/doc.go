// Package textutil sanitizes episode titles for use as file names and builds
// short filesystem-safe tokens.
package textutil
