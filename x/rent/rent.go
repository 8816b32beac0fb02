/*
Package rent implements the storage exemption rules.

An account is exempt from rent, and therefore is never reclaimed, when its
lamport balance covers the cost of storing its data for a configured number
of years.
*/
package rent

import (
	bin "github.com/gagliardetto/binary"
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/errors"
	"github.com/iov-one/guardvault/gconf"
	"lukechampine.com/uint128"
)

// ConfPkg is the gconf package name of the rent configuration.
const ConfPkg = "rent"

// AccountStorageOverhead is the number of bytes charged for every account on
// top of its data.
const AccountStorageOverhead = 128

// Config declares the cost of storage.
type Config struct {
	LamportsPerByteYear uint64 `json:"lamports_per_byte_year"`
	ExemptionYears      uint64 `json:"exemption_years"`
}

var _ gconf.Configuration = (*Config)(nil)

// DefaultConfig returns the rent configuration used when nothing else was
// provided.
func DefaultConfig() Config {
	return Config{LamportsPerByteYear: 3480, ExemptionYears: 2}
}

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if c.LamportsPerByteYear == 0 {
		return errors.Wrap(errors.ErrEmpty, "lamports per byte year")
	}
	if c.ExemptionYears == 0 {
		return errors.Wrap(errors.ErrEmpty, "exemption years")
	}
	return nil
}

// PackedLen returns the size of the stored configuration.
func (Config) PackedLen() int { return 16 }

// MarshalWithEncoder writes the configuration.
func (c Config) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint64(c.LamportsPerByteYear, bin.LE); err != nil {
		return err
	}
	return enc.WriteUint64(c.ExemptionYears, bin.LE)
}

// UnmarshalWithDecoder reads the configuration.
func (c *Config) UnmarshalWithDecoder(dec *bin.Decoder) error {
	perByte, err := guardvault.ReadUint64(dec)
	if err != nil {
		return err
	}
	years, err := guardvault.ReadUint64(dec)
	if err != nil {
		return err
	}
	c.LamportsPerByteYear = perByte
	c.ExemptionYears = years
	return nil
}

// MinimumBalance returns the lamports an account of given data size must hold
// to be exempt. The result saturates at the maximum uint64 value.
func (c Config) MinimumBalance(size int) uint64 {
	if size < 0 {
		size = 0
	}
	total := uint64(size) + AccountStorageOverhead
	perYear := uint128.From64(total).Mul64(c.LamportsPerByteYear)
	if perYear.Hi != 0 {
		return ^uint64(0)
	}
	lamports := perYear.Mul64(c.ExemptionYears)
	if lamports.Hi != 0 {
		return ^uint64(0)
	}
	return lamports.Lo
}

// IsExempt returns true if given balance is enough for an account of given
// data size to never be reclaimed.
func (c Config) IsExempt(balance uint64, size int) bool {
	return balance >= c.MinimumBalance(size)
}

// Load returns the rent configuration stored in the database.
func Load(db gconf.ReadStore) (Config, error) {
	var c Config
	if err := gconf.Load(db, ConfPkg, &c); err != nil {
		return c, errors.Wrap(err, "rent configuration")
	}
	return c, nil
}

// Initializer fulfils the guardvault.Initializer interface to load the rent
// configuration from the genesis file.
type Initializer struct{}

var _ guardvault.Initializer = Initializer{}

// FromGenesis stores the rent configuration.
func (Initializer) FromGenesis(opts guardvault.Options, db guardvault.KVStore) error {
	var c Config
	return gconf.InitConfig(db, opts, ConfPkg, &c)
}
