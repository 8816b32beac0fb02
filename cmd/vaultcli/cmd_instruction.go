package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/x/vault"
)

func cmdDecodeInstruction(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Decode vault instruction data and display it as JSON.

InitVault reads its guardians from the account list, so the accounts of the
call must be provided for it, in order.
`)
		fl.PrintDefaults()
	}
	var (
		encFl      = fl.String("enc", "hex", "Input encoding: hex, base64 or raw.")
		accountsFl = flAddresses(fl, "accounts", "Comma separated account addresses of the call.")
	)
	fl.Parse(args)

	raw, err := readInput(input, *encFl)
	if err != nil {
		return err
	}
	ix, err := vault.DecodeInstruction(raw, []guardvault.Address(*accountsFl))
	if err != nil {
		return fmt.Errorf("cannot decode instruction: %s", err)
	}
	view, err := instructionView(ix)
	if err != nil {
		return err
	}
	return writeJSON(output, view)
}

type instructionSummary struct {
	Kind       string                    `json:"kind"`
	Amount     *string                   `json:"amount,omitempty"`
	Asset      *guardvault.Address       `json:"asset,omitempty"`
	Thresholds *vault.GuardianThresholds `json:"thresholds,omitempty"`
	Guardians  guardvault.Addresses      `json:"guardians,omitempty"`
	Action     json.RawMessage           `json:"action,omitempty"`
	ProposalID *uint64                   `json:"proposal_id,omitempty"`
}

func instructionView(ix vault.Instruction) (*instructionSummary, error) {
	s := instructionSummary{Kind: ix.Kind().String()}
	switch ix := ix.(type) {
	case vault.InitVault:
		amount := strconv.FormatUint(ix.Amount, 10)
		s.Amount = &amount
		s.Thresholds = &ix.Thresholds
		s.Guardians = ix.Guardians
	case vault.ProposeAction:
		action, err := vault.MarshalActionJSON(ix.Action)
		if err != nil {
			return nil, err
		}
		s.Action = action
	case vault.ConfirmAction:
		s.ProposalID = &ix.ProposalID
	case vault.ExecuteWithdrawal:
		amount := strconv.FormatUint(ix.Amount, 10)
		s.Amount = &amount
		s.Asset = &ix.Asset
	case vault.WithdrawProposal:
		s.ProposalID = &ix.ProposalID
	case vault.AddGuardian, vault.RemoveGuardian:
	}
	return &s, nil
}
