/*
Package accounts implements the runtime accounts every program operates on.

An account holds a lamport balance, the address of the program that owns it
and a data buffer. The data buffer is allocated once, when the account is
created, and its size can never change afterwards. Programs store their fixed
layout records inside of that buffer.
*/
package accounts
