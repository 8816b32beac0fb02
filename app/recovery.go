package app

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/x/accounts"
)

// process runs a program, turning panics into normal errors so that a
// broken program cannot take the runtime down.
func process(ctx guardvault.Context, p Program, db guardvault.KVStore, metas []accounts.AccountMeta, data []byte) (err error) {
	defer errors.Recover(&err)
	return p.Process(ctx, db, metas, data)
}
