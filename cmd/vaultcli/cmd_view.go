package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/app"
)

func cmdTransactionView(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Decode and display transaction summary. This command is helpful when receiving
a binary representation of a transaction. Before signing you should check what
kind of operation are you authorizing.
`)
		fl.PrintDefaults()
	}
	var (
		encFl = fl.String("enc", "raw", "Input encoding: hex, base64 or raw.")
	)
	fl.Parse(args)

	raw, err := readInput(input, *encFl)
	if err != nil {
		return err
	}
	tx, err := app.DecodeTx(raw)
	if err != nil {
		return fmt.Errorf("cannot deserialize transaction: %s", err)
	}

	type accountView struct {
		Address  guardvault.Address `json:"address"`
		Writable bool               `json:"writable"`
	}
	type instructionView struct {
		ProgramID guardvault.Address `json:"program_id"`
		Accounts  []accountView      `json:"accounts"`
		Data      []byte             `json:"data"`
	}
	type signatureView struct {
		Signer   guardvault.Address `json:"signer"`
		Sequence uint64             `json:"sequence"`
	}
	view := struct {
		Instructions []instructionView `json:"instructions"`
		Signatures   []signatureView   `json:"signatures"`
	}{
		Instructions: []instructionView{},
		Signatures:   []signatureView{},
	}
	for _, ix := range tx.Instructions {
		iv := instructionView{ProgramID: ix.ProgramID, Accounts: []accountView{}, Data: ix.Data}
		for _, a := range ix.Accounts {
			iv.Accounts = append(iv.Accounts, accountView{Address: a.Address, Writable: a.Writable})
		}
		view.Instructions = append(view.Instructions, iv)
	}
	for _, s := range tx.Signatures {
		view.Signatures = append(view.Signatures, signatureView{
			Signer:   s.Signer(),
			Sequence: s.Sequence,
		})
	}
	return writeJSON(output, view)
}
