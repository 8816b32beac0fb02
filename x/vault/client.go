package vault

import (
	"github.com/iov-one/guardvault"
	"github.com/iov-one/guardvault/x/accounts"
)

// Call is an encoded instruction together with the accounts it operates on.
type Call struct {
	Data     []byte
	Accounts []accounts.AccountMeta
}

func newCall(ix Instruction, metas ...accounts.AccountMeta) (Call, error) {
	data, err := EncodeInstruction(ix)
	if err != nil {
		return Call{}, err
	}
	return Call{Data: data, Accounts: metas}, nil
}

// InitVaultCall builds an InitVault call. The authority is derived from the
// owner and the vault custody account.
func InitVaultCall(d Deriver, owner, vaultAcc, source, vaultCustody guardvault.Address, guardians guardvault.Addresses, amount uint64, thresholds GuardianThresholds) (Call, error) {
	authority, err := CustodyAuthority(d, owner, vaultCustody)
	if err != nil {
		return Call{}, err
	}
	metas := []accounts.AccountMeta{
		accounts.Signer(owner),
		accounts.Writable(vaultAcc),
		accounts.Writable(source),
		accounts.Writable(vaultCustody),
		accounts.ReadOnly(authority),
	}
	for _, g := range guardians {
		metas = append(metas, accounts.ReadOnly(g))
	}
	return newCall(InitVault{Amount: amount, Thresholds: thresholds, Guardians: guardians}, metas...)
}

// ProposeActionCall builds a ProposeAction call.
func ProposeActionCall(caller, vaultAcc, vaultCustody guardvault.Address, action Action) (Call, error) {
	return newCall(ProposeAction{Action: action},
		accounts.Signer(caller),
		accounts.Writable(vaultAcc),
		accounts.Writable(vaultCustody))
}

// ConfirmActionCall builds a ConfirmAction call.
func ConfirmActionCall(guardian, vaultAcc, vaultCustody guardvault.Address, proposalID uint64) (Call, error) {
	return newCall(ConfirmAction{ProposalID: proposalID},
		accounts.Signer(guardian),
		accounts.Writable(vaultAcc),
		accounts.Writable(vaultCustody))
}

// ExecuteWithdrawalCall builds an ExecuteWithdrawal call.
func ExecuteWithdrawalCall(owner, vaultAcc, vaultCustody, destination, asset guardvault.Address, amount uint64) (Call, error) {
	return newCall(ExecuteWithdrawal{Asset: asset, Amount: amount},
		accounts.Signer(owner),
		accounts.ReadOnly(vaultAcc),
		accounts.Writable(vaultCustody),
		accounts.Writable(destination))
}

// AddGuardianCall builds an AddGuardian call.
func AddGuardianCall(owner, vaultAcc, guardian guardvault.Address) (Call, error) {
	return newCall(AddGuardian{},
		accounts.Signer(owner),
		accounts.Writable(vaultAcc),
		accounts.ReadOnly(guardian))
}

// RemoveGuardianCall builds a RemoveGuardian call.
func RemoveGuardianCall(owner, vaultAcc, guardian guardvault.Address) (Call, error) {
	return newCall(RemoveGuardian{},
		accounts.Signer(owner),
		accounts.Writable(vaultAcc),
		accounts.ReadOnly(guardian))
}

// WithdrawProposalCall builds a WithdrawProposal call.
func WithdrawProposalCall(caller, vaultAcc guardvault.Address, proposalID uint64) (Call, error) {
	return newCall(WithdrawProposal{ProposalID: proposalID},
		accounts.Signer(caller),
		accounts.Writable(vaultAcc))
}
