/*
Package vault implements a custodial vault governed by a set of guardians.

The vault owner deposits assets into a custody account controlled by an
authority derived from the owner and the custody account addresses. Sensitive
actions (freezing, unfreezing, rotating the owner key and adjusting
withdrawal limits) are raised as proposals and executed the moment enough
distinct guardians confirm them. Each action has its own threshold.

The vault record is stored in an account allocated once with exactly LEN
bytes. Every operation either writes a complete, valid record or leaves the
storage untouched.
*/
package vault
