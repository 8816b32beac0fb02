/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension that needs configuration declares a type implementing the
Configuration interface and stores a single instance of it under a key derived
from the extension name. Configuration is loaded from the genesis file, under
the "conf" section, and validated before being written.

Configurations are stored using the same fixed-layout codec as every other
record so that a configuration singleton has a bounded, known size.
*/
package gconf
