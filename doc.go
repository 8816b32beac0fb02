/*
Package guardvault defines the common types and interfaces shared by the
vault extensions: the 32 byte Address identity, the fixed-layout codec
contract implemented by every persisted record, the key value store
interfaces and the context helpers used to pass a logger and a chain ID
through the call stack.

We pass context through context.Context between the runtime, the programs and
their collaborators. There should exist two functions for every XYZ of type T
that we want to support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) T

WithXYZ may panic if the value was previously set to avoid lower-level modules
overwriting the value (eg. chain ID).
*/
package guardvault
