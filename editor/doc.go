// Package editor provides the editor tree that binds JSON configuration documents to typed values.
//
// Leaf editors hold primitive values (numbers, integers, booleans, strings, enums, colors).
// Composite editors hold other editors:
//
//   - MapEditor binds an object to named children, some optional, some merged into the object.
//   - ListEditor binds an array to items created by a factory.
//   - ClassEditor wraps the editor of one concrete type.
//   - SubclassEditor selects an implementation of an interface by discriminator.
//
// Loading never fails. Malformed leaf input falls back to defaults, unknown keys are reported
// through a diag.Reporter, and an unresolvable discriminator leaves the slot unselected. Only
// Value, the step that produces real objects, returns errors, as *ConfigurationError.
//
// Creating objects is delegated to a Binder, implemented by the bind package.
package editor
