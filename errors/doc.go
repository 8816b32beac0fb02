/*
Package errors implements the error handling used across guardvault.

Every failure returned to a caller should wrap one of the registered root
errors, either one declared in this package or one registered by an extension
(x/vault declares the vault specific taxonomy). A root error carries a numeric
code that is stable across releases so that clients can branch on the reason
of a failure instead of parsing messages.

Create errors at the point of failure with ErrXyz.New("...") or
errors.Wrap(err, "...") so that a stack trace is attached once, at the
innermost wrap. Do not declare wrapped errors as package level variables or
the recorded stack trace will be useless.

Once you have an error, use fmt to get more context
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
