// Package metadata materialises symbol graphs from assembly manifests.
//
// Manifests are TOML or YAML bundles of AssemblyDef values, or msgpack
// images of the same structs. A Universe builds one Assembly per def and
// binds module references against the other assemblies in the set.
// Types, members and signatures are decoded on first access.
package metadata
