/*
Package custody implements the asset holding accounts.

A custody account is a runtime account owned by the custody program. Its data
holds the asset the account is denominated in, the authority allowed to move
funds out of it and the balance. Every operation either completes or leaves
the storage untouched.
*/
package custody
