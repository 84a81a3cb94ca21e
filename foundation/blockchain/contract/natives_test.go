package contract_test

import (
	"context"
	"testing"
	"time"

	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/btnlabs/blockchain/foundation/blockchain/contract/store/memory"
)

func Test_MiningRewards(t *testing.T) {
	t.Log("Given the need to reward user actions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen rewarding a share action.", testID)
		{
			e := newEngine(t, memory.New())
			if _, err := e.DeployBuiltins(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to deploy the builtins: %v", failed, testID, err)
			}

			var id string
			for _, c := range e.ContractsByOwner(contract.SystemOwner) {
				if c.Name == "MiningRewards" {
					id = c.ID
				}
			}

			reward := mustInvoke(t, e, contract.Call{ContractID: id, Method: "calculateReward", Params: []any{"share", "alice"}, Caller: "alice"})
			if reward != 0.2 {
				t.Fatalf("\t%s\tTest %d:\tShould apply the action multiplier, got %v.", failed, testID, reward)
			}
			t.Logf("\t%s\tTest %d:\tShould apply the action multiplier.", success, testID)

			reward = mustInvoke(t, e, contract.Call{ContractID: id, Method: "calculateReward", Params: []any{"unknown", "alice"}, Caller: "alice"})
			if reward != 0.1 {
				t.Fatalf("\t%s\tTest %d:\tShould use the base rate for unknown actions, got %v.", failed, testID, reward)
			}
			t.Logf("\t%s\tTest %d:\tShould use the base rate for unknown actions.", success, testID)

			claimed := mustInvoke(t, e, contract.Call{ContractID: id, Method: "claimRewards", Params: []any{"alice"}, Caller: "alice"})
			if f, ok := claimed.(float64); !ok || f < 0.29 || f > 0.31 {
				t.Fatalf("\t%s\tTest %d:\tShould claim the accumulated rewards, got %v.", failed, testID, claimed)
			}
			t.Logf("\t%s\tTest %d:\tShould claim the accumulated rewards.", success, testID)

			if left := mustInvoke(t, e, contract.Call{ContractID: id, Method: "getUserRewards", Params: []any{"alice"}, Caller: "alice"}); left != 0.0 {
				t.Fatalf("\t%s\tTest %d:\tShould have nothing left to claim, got %v.", failed, testID, left)
			}
			t.Logf("\t%s\tTest %d:\tShould have nothing left to claim.", success, testID)
		}
	}
}

func Test_Templates(t *testing.T) {
	t.Log("Given the need to deploy the contract templates.")
	{
		now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		e, err := contract.NewEngine(context.Background(), contract.Config{
			Storer: memory.New(),
			Now:    func() time.Time { return now },
		})
		if err != nil {
			t.Fatalf("unable to create engine: %v", err)
		}

		deploy := func(name string, owner string) string {
			for _, tmpl := range contract.Templates() {
				if tmpl.Name == name {
					id, err := e.DeployContract(context.Background(), contract.DeploySpec{Name: tmpl.Name, Code: tmpl.Code, ABI: tmpl.ABI, Owner: owner})
					if err != nil {
						t.Fatalf("unable to deploy %s: %v", name, err)
					}
					return id
				}
			}
			t.Fatalf("unknown template %s", name)
			return ""
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen using the simple token.", testID)
		{
			id := deploy("SimpleToken", "alice")

			if bal := mustInvoke(t, e, contract.Call{ContractID: id, Method: "balanceOf", Params: []any{"alice"}, Caller: "alice"}); bal != uint64(1_000_000) {
				t.Fatalf("\t%s\tTest %d:\tShould give the owner the initial supply, got %v.", failed, testID, bal)
			}
			t.Logf("\t%s\tTest %d:\tShould give the owner the initial supply.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen voting on a proposal.", testID)
		{
			id := deploy("Voting", "alice")

			pid := mustInvoke(t, e, contract.Call{ContractID: id, Method: "createProposal", Params: []any{"upgrade", "raise the limit", float64(3600)}, Caller: "alice"})
			if pid != uint64(0) {
				t.Fatalf("\t%s\tTest %d:\tShould get the first proposal id, got %v.", failed, testID, pid)
			}
			t.Logf("\t%s\tTest %d:\tShould get the first proposal id.", success, testID)

			if ok := mustInvoke(t, e, contract.Call{ContractID: id, Method: "vote", Params: []any{float64(0), "bob", true}, Caller: "bob"}); ok != true {
				t.Fatalf("\t%s\tTest %d:\tShould be able to vote.", failed, testID)
			}
			if ok := mustInvoke(t, e, contract.Call{ContractID: id, Method: "vote", Params: []any{float64(0), "bob", false}, Caller: "bob"}); ok != false {
				t.Fatalf("\t%s\tTest %d:\tShould not be able to vote twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould count one vote per voter.", success, testID)

			got := mustInvoke(t, e, contract.Call{ContractID: id, Method: "getProposal", Params: []any{float64(0)}, Caller: "bob"})
			proposal, ok := got.(map[string]any)
			if !ok || proposal["yesVotes"] != uint64(1) || proposal["noVotes"] != uint64(0) {
				t.Fatalf("\t%s\tTest %d:\tShould get the tally, got %v.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould get the tally.", success, testID)
		}
	}
}
