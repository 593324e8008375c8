// Package config defines the packaging configuration and helpers to load,
// validate and save it in YAML format.
//
// Every field has a default, so a project laid out the usual way
// (cargo output in target/release, assets in asset/) needs no file at all.
package config
