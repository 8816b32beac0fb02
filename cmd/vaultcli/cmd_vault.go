package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/x/vault"
)

func cmdDecodeVault(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Decode the data of a vault state account and display it as JSON. The input
must be exactly as long as the vault record storage.
`)
		fl.PrintDefaults()
	}
	var (
		encFl = fl.String("enc", "hex", "Input encoding: hex, base64 or raw.")
	)
	fl.Parse(args)

	raw, err := readInput(input, *encFl)
	if err != nil {
		return err
	}
	var v vault.Vault
	if err := guardvault.Unpack(raw, &v); err != nil {
		return fmt.Errorf("cannot decode vault: %s", err)
	}
	return writeJSON(output, &v)
}

func cmdVaultLen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the number of bytes a vault state account must allocate.
`)
		fl.PrintDefaults()
	}
	fl.Parse(args)

	_, err := fmt.Fprintln(output, vault.LEN)
	return err
}

func cmdDeriveAuthority(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Derive the authority that controls the custody account of a vault. The
authority is derived from the owner and the custody account addresses under
the vault program.
`)
		fl.PrintDefaults()
	}
	var (
		programFl = flAddress(fl, "program", "", "Vault program address.")
		ownerFl   = flAddress(fl, "owner", "", "Vault owner address.")
		custodyFl = flAddress(fl, "custody", "", "Vault custody account address.")
	)
	fl.Parse(args)

	for name, a := range map[string]*guardvault.Address{"program": programFl, "owner": ownerFl, "custody": custodyFl} {
		if a.IsZero() {
			flagDie("-%s is required", name)
		}
	}

	authority, err := vault.CustodyAuthority(vault.ProgramDeriver{ProgramID: *programFl}, *ownerFl, *custodyFl)
	if err != nil {
		return fmt.Errorf("cannot derive authority: %s", err)
	}
	_, err = fmt.Fprintln(output, authority)
	return err
}

func writeJSON(output io.Writer, v interface{}) error {
	pretty, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot JSON serialize: %s", err)
	}
	_, err = output.Write(pretty)
	return err
}
