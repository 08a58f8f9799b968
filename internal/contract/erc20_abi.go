package contract

// erc20 is the read side of the standard ERC-20 interface (EIP-20), used to
// describe the fund's payout token returned by msnToken().
//
// Function selectors:
//
//	name()              → 0x06fdde03
//	symbol()            → 0x95d89b41
//	decimals()          → 0x313ce567
//	totalSupply()       → 0x18160ddd
//	balanceOf(address)  → 0x70a08231
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          "erc20",
		Name:        "ERC-20 Standard Token",
		Description: "Standard ERC-20 read interface. Used for the fund's MSN payout token.",
		ABI:         erc20ABI,
	})
}

var erc20ABI = []ABIEntry{
	{
		Type: KindFunction, Name: "name",
		Inputs: []ABIParam{}, Outputs: []ABIParam{{Type: "string"}},
		StateMutability: MutabilityView,
	},
	{
		Type: KindFunction, Name: "symbol",
		Inputs: []ABIParam{}, Outputs: []ABIParam{{Type: "string"}},
		StateMutability: MutabilityView,
	},
	{
		Type: KindFunction, Name: "decimals",
		Inputs: []ABIParam{}, Outputs: []ABIParam{{Type: "uint8"}},
		StateMutability: MutabilityView,
	},
	{
		Type: KindFunction, Name: "totalSupply",
		Inputs: []ABIParam{}, Outputs: []ABIParam{{Type: "uint256"}},
		StateMutability: MutabilityView,
	},
	{
		Type: KindFunction, Name: "balanceOf",
		Inputs:          []ABIParam{{Name: "account", Type: "address"}},
		Outputs:         []ABIParam{{Type: "uint256"}},
		StateMutability: MutabilityView,
	},
	{
		Type: KindEvent, Name: "Transfer",
		Inputs: []ABIParam{
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "value", Type: "uint256"},
		},
	},
}
