package core

// AccountSelector identifies the account a ledger write should land on.
// It is implemented by ManualSelector and NumberSelector only.
type AccountSelector interface {
	accountSelector()
}

// ManualSelector picks the user's account of Type, creating it with Name and
// InitialBalance when missing.
type ManualSelector struct {
	Name           string
	Type           AccountType
	InitialBalance Money
}

// NumberSelector picks the account carrying an external bank account number.
type NumberSelector struct {
	Number int64
}

func (ManualSelector) accountSelector() {}
func (NumberSelector) accountSelector() {}
