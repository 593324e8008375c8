// Package release holds the domain model of a packaged release.
//
// A Plan lists every Placement (build artifact or static asset) together
// with its destination relative to the release directory, for either the
// flat or the nested-assets Layout. The package also defines the error
// taxonomy reported by the packager: build failures, missing assets and
// file system errors.
package release
