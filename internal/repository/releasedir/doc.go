// Package releasedir implements the file operations behind a release
// directory on top of a go-billy filesystem rooted at the project root.
//
// Directory exposes guarded primitives: recursive removal, permission
// preserving copies, SHA-512 checksums, listing, and Swap, which replaces a
// directory with a fully populated staging directory without ever leaving a
// half-deleted release behind.
package releasedir
