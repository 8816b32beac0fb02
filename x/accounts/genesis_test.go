package accounts

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/store"
	"github.com/iov-one/guardvault/vaulttest/assert"
)

func TestGenesis(t *testing.T) {
	addr := guardvault.Address{5}
	genesis := `{"accounts": [{"address": "` + addr.String() + `", "lamports": 42, "space": 3}]}`
	var opts guardvault.Options
	assert.Nil(t, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	assert.Nil(t, Initializer{}.FromGenesis(opts, db))

	a, err := Get(db, addr)
	assert.Nil(t, err)
	assert.Equal(t, &Account{Lamports: 42, Data: []byte{0, 0, 0}}, a)

	// loading the same genesis twice must fail
	assert.IsErr(t, errors.ErrDuplicate, Initializer{}.FromGenesis(opts, db))
}
