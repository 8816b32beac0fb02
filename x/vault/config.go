package vault

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/gconf"
)

// ConfPkg is the gconf package name of the vault configuration.
const ConfPkg = "vault"

// Config is the vault program configuration.
type Config struct {
	// ProgramID is the address of the vault program. Vault state accounts
	// must be owned by it and custody authorities are derived under it.
	ProgramID guardvault.Address `json:"program_id"`
	// Asset is the asset vault custody accounts are denominated in.
	Asset guardvault.Address `json:"asset"`
}

var _ gconf.Configuration = (*Config)(nil)

func (c Config) Validate() error {
	if c.ProgramID.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "program id")
	}
	if c.Asset.IsZero() {
		return errors.Wrap(errors.ErrEmpty, "asset")
	}
	return nil
}

func (Config) PackedLen() int { return 2 * guardvault.AddressLength }

func (c Config) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := c.ProgramID.MarshalWithEncoder(enc); err != nil {
		return err
	}
	return c.Asset.MarshalWithEncoder(enc)
}

func (c *Config) UnmarshalWithDecoder(dec *bin.Decoder) error {
	if err := c.ProgramID.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	return c.Asset.UnmarshalWithDecoder(dec)
}

// LoadConfig returns the vault configuration stored in the database.
func LoadConfig(db gconf.ReadStore) (Config, error) {
	var c Config
	if err := gconf.Load(db, ConfPkg, &c); err != nil {
		return c, errors.Wrap(err, "vault configuration")
	}
	return c, nil
}

// Initializer fulfils the guardvault.Initializer interface to load the vault
// configuration from the genesis file.
type Initializer struct{}

var _ guardvault.Initializer = Initializer{}

// FromGenesis stores the vault configuration.
func (Initializer) FromGenesis(opts guardvault.Options, db guardvault.KVStore) error {
	var c Config
	return gconf.InitConfig(db, opts, ConfPkg, &c)
}
