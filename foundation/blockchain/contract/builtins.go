package contract

// SystemOwner owns the contracts the node deploys on its own.
const SystemOwner = "system"

func fn(name string, mutability string, inputs []ABIParam, outputs ...ABIParam) ABIEntry {
	return ABIEntry{
		Name:            name,
		Type:            "function",
		Inputs:          inputs,
		Outputs:         outputs,
		StateMutability: mutability,
	}
}

func event(name string, inputs ...ABIParam) ABIEntry {
	return ABIEntry{
		Name:   name,
		Type:   "event",
		Inputs: inputs,
	}
}

func param(name string, typ string) ABIParam {
	return ABIParam{Name: name, Type: typ}
}

var (
	outBool = param("", "bool")
	outUint = param("", "uint256")
)

// =============================================================================

// Builtins returns the contracts a node deploys at startup.
func Builtins() []DeploySpec {
	return []DeploySpec{
		{
			Name:  "BTNToken",
			Code:  "native:BTNToken",
			Owner: SystemOwner,
			ABI: []ABIEntry{
				fn("mint", "nonpayable", []ABIParam{param("to", "address"), param("amount", "uint256")}, outBool),
				fn("transfer", "nonpayable", []ABIParam{param("from", "address"), param("to", "address"), param("amount", "uint256")}, outBool),
				fn("balanceOf", "view", []ABIParam{param("account", "address")}, outUint),
				fn("approve", "nonpayable", []ABIParam{param("owner", "address"), param("spender", "address"), param("amount", "uint256")}, outBool),
				event("Transfer", param("from", "address"), param("to", "address"), param("value", "uint256")),
				event("Approval", param("owner", "address"), param("spender", "address"), param("value", "uint256")),
			},
		},
		{
			Name:  "MiningRewards",
			Code:  "native:MiningRewards",
			Owner: SystemOwner,
			ABI: []ABIEntry{
				fn("calculateReward", "nonpayable", []ABIParam{param("action", "string"), param("user", "address")}, outUint),
				fn("claimRewards", "nonpayable", []ABIParam{param("user", "address")}, outUint),
				fn("getUserRewards", "view", []ABIParam{param("user", "address")}, outUint),
				event("RewardCalculated", param("user", "address"), param("action", "string"), param("reward", "uint256")),
				event("RewardsClaimed", param("user", "address"), param("amount", "uint256")),
			},
		},
	}
}

// Templates returns the contracts users can deploy without writing an ABI.
func Templates() []Template {
	return []Template{
		{
			Name:        "SimpleToken",
			Description: "Basic ERC-20 compatible token contract",
			Code:        "native:SimpleToken",
			ABI: []ABIEntry{
				fn("transfer", "nonpayable", []ABIParam{param("from", "address"), param("to", "address"), param("amount", "uint256")}, outBool),
				fn("balanceOf", "view", []ABIParam{param("account", "address")}, outUint),
				event("Transfer", param("from", "address"), param("to", "address"), param("value", "uint256")),
			},
		},
		{
			Name:        "Voting",
			Description: "Simple voting contract for governance",
			Code:        "native:Voting",
			ABI: []ABIEntry{
				fn("createProposal", "nonpayable", []ABIParam{param("title", "string"), param("description", "string"), param("duration", "uint256")}, outUint),
				fn("vote", "nonpayable", []ABIParam{param("proposalId", "uint256"), param("voter", "address"), param("support", "bool")}, outBool),
				fn("getProposal", "view", []ABIParam{param("proposalId", "uint256")}),
				event("ProposalCreated", param("proposalId", "uint256"), param("title", "string"), param("description", "string")),
				event("VoteCast", param("proposalId", "uint256"), param("voter", "address"), param("support", "bool")),
			},
		},
	}
}
