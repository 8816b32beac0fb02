package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
)

// Genesis file format.
type Genesis struct {
	ChainID  string             `json:"chain_id"`
	AppState guardvault.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct.
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis

	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	return gen, nil
}

//------- storing chainID ---------

const chainIDKey = "_chainID"

// loadChainID returns the chain id stored if any.
func loadChainID(db guardvault.ReadOnlyKVStore) (string, error) {
	v, err := db.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name.
func saveChainID(db guardvault.KVStore, chainID string) error {
	if !guardvault.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %q", chainID)
	}
	k := []byte(chainIDKey)
	if ok, err := db.Has(k); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	} else if ok {
		return errors.Wrap(errors.ErrState, "chain id already set")
	}
	return db.Set(k, []byte(chainID))
}
