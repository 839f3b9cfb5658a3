/*
Package dustr maps the items a Rust crate exposes over FFI to Dart.

Items are marked for binding with #[derive(FFIShim)] (structs and enums) or
#[ffishim_function] (free functions). For every field, parameter and return
value of a marked item, dustr determines how its type crosses the boundary:
the dart:ffi type of the shim, the idiomatic Dart type and the conversion
expressions between them.

# Architecture pipeline (for developers)

Each element in the pipeline has a distinct sub-package. They are "glued"
together in [Generate].
 1. [config]: Read 'Cargo.toml', the user-supplied 'dustr.toml' and 'bindings.txt' files
 2. [rust]: Parse Rust source files
 3. [module]: Build the module tree of the crate, keeping only marked items
 4. [types]: Map each type expression to its behavior
 5. [binding]: Evaluate the behaviors of every marked item
 6. [report]: Print the result
*/
package dustr
