package contract

// DevFundAddress is the deployed DevFund contract.
const DevFundAddress = "0x08ed34A3a00899BFbea545929156A5164e820ab4"

// DevFund pays registered developers a monthly allowance in the MSN token.
// Managers add, update and delete developers; developers claim; the owner can
// start the token generation event (setTGE) and sweep stray tokens.
//
// Function selectors:
//
//	addDevelopers(address[],uint256[]) → 0xd2a87cb7
//	addManager(address)                → 0x2d06177a
//	claim()                            → 0x4e71d92d
//	deleteDeveloper(address)           → 0x73384c4c
//	deleteManager(address)             → 0x96799760
//	setTGE()                           → 0xa0e7cfe0
//	transferOwnership(address)         → 0xf2fde38b
//	updateDeveloper(address,uint256)   → 0xd855da2e
//	withdrawAnyToken(address)          → 0x7892766c
//	msnDevelopers(address)             → 0x54f434e9
//	msnToken()                         → 0x45315aa4
var DevFund = NewDescriptor("token", DevFundAddress, devFundABI)

func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          "devfund",
		Name:        "DevFund (developer allowance fund)",
		Description: "Monthly MSN allowances for registered developers. Default target of every devfund command.",
		Address:     DevFundAddress,
		ABI:         devFundABI,
	})
}

var devFundABI = []ABIEntry{
	// ── Events ───────────────────────────────────────────────────────────────
	{
		Type: KindEvent, Name: "DeveloperAdded",
		Inputs: []ABIParam{
			{Name: "newDevAddress", Type: "address", InternalType: "address"},
			{Name: "monthlyAllowance", Type: "uint256", InternalType: "uint256"},
		},
	},
	{
		Type: KindEvent, Name: "DeveloperDeleted",
		Inputs: []ABIParam{
			{Name: "deletedDev", Type: "address", InternalType: "address"},
		},
	},
	{
		Type: KindEvent, Name: "DeveloperUpdated",
		Inputs: []ABIParam{
			{Name: "developer", Type: "address", InternalType: "address"},
			{Name: "newMonthlyAllowance", Type: "uint256", InternalType: "uint256"},
		},
	},
	{
		Type: KindEvent, Name: "DevelopersAdded",
		Inputs: []ABIParam{
			{Name: "developers", Type: "address[]", InternalType: "address[]"},
		},
	},
	{
		Type: KindEvent, Name: "OwnershipRenounced",
		Inputs: []ABIParam{
			{Name: "_previousOwner", Type: "address", InternalType: "address"},
			{Name: "_newOwner", Type: "address", InternalType: "address"},
		},
	},
	{
		Type: KindEvent, Name: "OwnershipTransferred",
		Inputs: []ABIParam{
			{Name: "_previousOwner", Type: "address", InternalType: "address"},
			{Name: "_newOwner", Type: "address", InternalType: "address"},
		},
	},
	// ── Write ────────────────────────────────────────────────────────────────
	{
		Type: KindFunction, Name: "addDevelopers",
		Inputs: []ABIParam{
			{Name: "_newDev", Type: "address[]", InternalType: "address[]"},
			{Name: "_monthlyAllowance", Type: "uint256[]", InternalType: "uint256[]"},
		},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type: KindFunction, Name: "addManager",
		Inputs:          []ABIParam{{Name: "_newManager", Type: "address", InternalType: "address"}},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type: KindFunction, Name: "claim",
		Inputs:          []ABIParam{},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type: KindFunction, Name: "deleteDeveloper",
		Inputs:          []ABIParam{{Name: "_address", Type: "address", InternalType: "address"}},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type: KindFunction, Name: "deleteManager",
		Inputs:          []ABIParam{{Name: "_deleteManager", Type: "address", InternalType: "address"}},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type: KindFunction, Name: "setTGE",
		Inputs:          []ABIParam{},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type: KindFunction, Name: "transferOwnership",
		Inputs:          []ABIParam{{Name: "_newOwner", Type: "address", InternalType: "address"}},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type: KindFunction, Name: "updateDeveloper",
		Inputs: []ABIParam{
			{Name: "_address", Type: "address", InternalType: "address"},
			{Name: "_newMonthlyAllowance", Type: "uint256", InternalType: "uint256"},
		},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type: KindFunction, Name: "withdrawAnyToken",
		Inputs:          []ABIParam{{Name: "_address", Type: "address", InternalType: "contract IERC20"}},
		Outputs:         []ABIParam{},
		StateMutability: MutabilityNonpayable,
	},
	{
		Type:            KindConstructor,
		Inputs:          []ABIParam{{Name: "_token", Type: "address", InternalType: "contract IERC20"}},
		StateMutability: MutabilityNonpayable,
	},
	// ── Read ─────────────────────────────────────────────────────────────────
	{
		Type: KindFunction, Name: "msnDevelopers",
		Inputs: []ABIParam{{Name: "", Type: "address", InternalType: "address"}},
		Outputs: []ABIParam{
			{Name: "isDeveloper", Type: "bool", InternalType: "bool"},
			{Name: "monthlyAllowance", Type: "uint256", InternalType: "uint256"},
			{Name: "txCount", Type: "uint256", InternalType: "uint256"},
			{Name: "totalClaimed", Type: "uint256", InternalType: "uint256"},
			{Name: "joinedAtTime", Type: "uint256", InternalType: "uint256"},
		},
		StateMutability: MutabilityView,
	},
	{
		Type: KindFunction, Name: "msnToken",
		Inputs:          []ABIParam{},
		Outputs:         []ABIParam{{Name: "", Type: "address", InternalType: "contract IERC20"}},
		StateMutability: MutabilityView,
	},
}
