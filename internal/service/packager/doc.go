// Package packager assembles a release directory from build outputs and static assets.
//
// Run builds the executable, checks every asset is present, stages the new
// release next to the output directory, verifies each copy against its
// source checksum and finally swaps the staging directory into place. A
// failure at any step before the swap leaves the previous release untouched.
package packager
