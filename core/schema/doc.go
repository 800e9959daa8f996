// Package schema defines the declarative descriptors that modules hand to the
// CRUD and grid builders: fields, columns, actions, filters, route configs,
// navigation bundles and the published module descriptor.
//
// Descriptors are passive data. Behaviour attached to them (renderers,
// visibility and authorization predicates, click handlers) is expressed as
// typed function fields and strategy values, evaluated by the builders at
// render time and never cached.
//
// Modules can also be declared in YAML; see Manifest and ParseManifest.
package schema
