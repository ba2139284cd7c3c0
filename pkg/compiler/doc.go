/*
Package compiler lowers a state graph into concrete integration artifacts
for third-party game-audio middleware and runtime environments.

Each target is an independent pure function from graph to artifact list; a
failure in one target never aborts a batch compile of the others. All
targets share the same lowering rules (identifier sanitization, selection
mode mapping, manifest layout) so the same state appears under the same
sanitized identifier in every output.

Artifacts are built through small per-target builder types (XML document
structs, a code writer, a patch builder) and rendered by a single serializer
per target, so escaping and formatting live in one place.
*/
package compiler
