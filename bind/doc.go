// Package bind turns Go types into editor trees and editor trees back into instances.
//
// The way a type is bound is chosen on a zero *T, in this order:
//
//  1. EditorFactory: the type builds its own editor from the runtime and edit contexts.
//  2. Configurable, or struct tags: the type declares fields; the engine builds a MapEditor
//     and binds values onto a new instance through editor.ValueBinder or struct decoding.
//  3. ConstructorProvider: the type is built by a constructor whose parameters receive the
//     runtime context, the edit context, the raw document or bound field values.
//  4. Otherwise the type has no configurable surface. An instance is created through the
//     Factory and, if it implements InstanceConfigurable, its own editor is used.
//
// Implementations of interfaces are resolved through a registry.Registry handle.
package bind
