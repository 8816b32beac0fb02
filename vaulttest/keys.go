package vaulttest

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/crypto"
)

// NewKey returns a new random private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewAddress returns the address of a new random key.
func NewAddress() guardvault.Address {
	return NewKey().PublicKey().Address()
}

// NewAddresses returns n distinct random addresses.
func NewAddresses(n int) guardvault.Addresses {
	addrs := make(guardvault.Addresses, n)
	for i := range addrs {
		addrs[i] = NewAddress()
	}
	return addrs
}
