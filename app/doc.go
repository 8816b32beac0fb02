/*
Package app contains the transaction runtime.

A transaction is a list of instructions, each naming the program that
processes it and the accounts it operates on, together with the signatures
of the keys that authorized it. The runtime verifies the signatures, marks
the accounts of verified signers and hands every instruction to its
program. All instructions of a transaction run against one cache wrap of
the store, which is written only when every instruction succeeded.
*/
package app
