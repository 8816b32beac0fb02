package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/x/vault"
)

func TestCmdVaultLen(t *testing.T) {
	var output bytes.Buffer
	if err := cmdVaultLen(nil, &output, nil); err != nil {
		t.Fatalf("cannot print len: %s", err)
	}
	if got := strings.TrimSpace(output.String()); got != strconv.Itoa(vault.LEN) {
		t.Fatalf("unexpected len: %q", got)
	}
}

func TestCmdDecodeVault(t *testing.T) {
	v := &vault.Vault{
		Initialized: true,
		Owner:       guardvault.Address{1},
		Custody:     guardvault.Address{2},
		Guardians:   guardvault.Addresses{{3}, {4}, {5}, {6}},
		Thresholds:  vault.GuardianThresholds{Freeze: 2, Unfreeze: 2, ChangeOwnerKey: 3, AdjustWithdrawalLimit: 3},
		AssetLimits: []vault.AssetLimit{{Asset: guardvault.Address{7}, DailyWithdrawalLimit: vault.NewLimit(500)}},
		ProposalSeq: 1,
		Pending: &vault.Proposal{
			ID:          1,
			Proposer:    guardvault.Address{3},
			Action:      vault.Freeze{},
			ConfirmedBy: guardvault.Addresses{{3}},
		},
	}
	raw, err := guardvault.Pack(v)
	if err != nil {
		t.Fatalf("cannot pack: %s", err)
	}

	cases := map[string]struct {
		enc   string
		input []byte
	}{
		"hex":    {enc: "hex", input: []byte(hex.EncodeToString(raw) + "\n")},
		"base64": {enc: "base64", input: []byte(base64.StdEncoding.EncodeToString(raw))},
		"raw":    {enc: "raw", input: raw},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var output bytes.Buffer
			if err := cmdDecodeVault(bytes.NewReader(tc.input), &output, []string{"-enc", tc.enc}); err != nil {
				t.Fatalf("cannot decode: %s", err)
			}
			got := output.String()
			for _, want := range []string{
				`"initialized": true`,
				`"owner": "` + v.Owner.String() + `"`,
				`"daily_withdrawal_limit": "500"`,
				`"kind": "freeze"`,
				`"proposal_seq": 1`,
			} {
				if !strings.Contains(got, want) {
					t.Logf("got: %s", got)
					t.Fatalf("missing %s", want)
				}
			}
		})
	}

	t.Run("short input", func(t *testing.T) {
		input := strings.NewReader(hex.EncodeToString(raw[:10]))
		if err := cmdDecodeVault(input, &bytes.Buffer{}, nil); err == nil {
			t.Fatal("short input accepted")
		}
	})
}

func TestCmdDeriveAuthority(t *testing.T) {
	program := guardvault.Address{0xA1}
	owner := guardvault.Address{0xB1}
	custody := guardvault.Address{0xC1}

	want, err := vault.CustodyAuthority(vault.ProgramDeriver{ProgramID: program}, owner, custody)
	if err != nil {
		t.Fatalf("cannot derive: %s", err)
	}

	var output bytes.Buffer
	args := []string{"-program", program.String(), "-owner", owner.String(), "-custody", custody.String()}
	if err := cmdDeriveAuthority(nil, &output, args); err != nil {
		t.Fatalf("cannot derive: %s", err)
	}
	if got := strings.TrimSpace(output.String()); got != want.String() {
		t.Logf("want: %s", want)
		t.Logf(" got: %s", got)
		t.Fatal("unexpected authority")
	}
}
