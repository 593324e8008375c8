// Package builder runs the external build step that produces the release executable.
//
// Builder is the capability the packager depends on. CommandBuilder runs the
// configured toolchain command and Prebuilt only checks an existing artifact,
// so tests can swap either for a double that returns a fixed path.
package builder
