package deployer_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/btnlabs/blockchain/foundation/blockchain/deployer"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Lifecycle(t *testing.T) {
	t.Log("Given the need to track a contract deployment.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a deployment succeeds and is mined.", testID)
		{
			d := deployer.New()

			if err := d.Begin("contract_1", "Token", "alice", deployer.OriginNative); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to begin a deployment: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to begin a deployment.", success, testID)

			rec, _ := d.Get("contract_1")
			if rec.Status != deployer.StatusDeploying || rec.BlockNumber != nil || rec.Address != contract.Address("contract_1") {
				t.Fatalf("\t%s\tTest %d:\tShould have a deploying record: %+v", failed, testID, rec)
			}
			t.Logf("\t%s\tTest %d:\tShould have a deploying record.", success, testID)

			if err := d.Confirm("contract_1", nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to confirm: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to confirm.", success, testID)

			if n := d.ConfirmBlock(3, []string{"contract_1", "contract_x"}); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould record the block number once, got %d.", failed, testID, n)
			}
			if n := d.ConfirmBlock(4, []string{"contract_1"}); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not overwrite the block number, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould record the block number once.", success, testID)

			rec, _ = d.Get("contract_1")
			if rec.Status != deployer.StatusDeployed || rec.BlockNumber == nil || *rec.BlockNumber != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould have a deployed record: %+v", failed, testID, rec)
			}
			t.Logf("\t%s\tTest %d:\tShould have a deployed record.", success, testID)

			if err := d.Fail("contract_1", "late"); !errors.Is(err, deployer.ErrTerminal) {
				t.Fatalf("\t%s\tTest %d:\tShould not be able to fail a deployed record: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not be able to fail a deployed record.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a deployment fails.", testID)
		{
			d := deployer.New()
			d.Begin("contract_1", "Token", "alice", deployer.OriginPeer)

			if err := d.Fail("contract_1", "store unavailable"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to fail: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to fail.", success, testID)

			if err := d.Confirm("contract_1", nil); !errors.Is(err, deployer.ErrTerminal) {
				t.Fatalf("\t%s\tTest %d:\tShould not be able to confirm a failed record: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not be able to confirm a failed record.", success, testID)

			if d.ConfirmBlock(1, []string{"contract_1"}) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not add a block number to a failed record.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not add a block number to a failed record.", success, testID)

			records := d.GetAllDeployedContracts()
			if len(records) != 1 || records[0].Status != deployer.StatusFailed || d.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould list a failed record without counting it: %+v", failed, testID, records)
			}
			t.Logf("\t%s\tTest %d:\tShould list a failed record without counting it.", success, testID)

			if rec, exists := d.Get("contract_1"); !exists || rec.Reason != "store unavailable" {
				t.Fatalf("\t%s\tTest %d:\tShould keep the failure reason: %+v", failed, testID, rec)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the failure reason.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen using unknown or duplicate ids.", testID)
		{
			d := deployer.New()
			d.Begin("contract_1", "Token", "alice", deployer.OriginNative)

			if err := d.Begin("contract_1", "Token", "alice", deployer.OriginNative); !errors.Is(err, deployer.ErrExists) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a duplicate id: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a duplicate id.", success, testID)

			if err := d.Confirm("contract_2", nil); !errors.Is(err, deployer.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould not find an unknown id: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not find an unknown id.", success, testID)
		}
	}
}

func Test_Listing(t *testing.T) {
	t.Log("Given the need to list the deployed contracts.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen many deployments exist.", testID)
		{
			d := deployer.New()

			const total = 25
			for i := 0; i < total; i++ {
				id := fmt.Sprintf("contract_%02d", i)
				owner := "alice"
				if i%5 == 0 {
					owner = "bob"
				}
				d.Begin(id, "Token", owner, deployer.OriginNative)
				d.Confirm(id, nil)
			}

			records := d.GetAllDeployedContracts()
			if len(records) != total || d.Count() != total {
				t.Fatalf("\t%s\tTest %d:\tShould list every deployment, got %d.", failed, testID, len(records))
			}
			t.Logf("\t%s\tTest %d:\tShould list every deployment.", success, testID)

			for i, rec := range records {
				if rec.ID != fmt.Sprintf("contract_%02d", i) {
					t.Fatalf("\t%s\tTest %d:\tShould list in deployment order, got %s at %d.", failed, testID, rec.ID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould list in deployment order.", success, testID)

			if n := len(d.ByOwner("bob")); n != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould filter by owner, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould filter by owner.", success, testID)

			d.Begin("contract_failed", "Token", "bob", deployer.OriginPeer)
			d.Fail("contract_failed", "registry rejected")

			records = d.GetAllDeployedContracts()
			if len(records) != total+1 || records[total].Status != deployer.StatusFailed || records[total].Reason == "" {
				t.Fatalf("\t%s\tTest %d:\tShould list a failed deployment with its status: %+v", failed, testID, records[len(records)-1])
			}
			t.Logf("\t%s\tTest %d:\tShould list a failed deployment with its status.", success, testID)

			if d.Count() != total {
				t.Fatalf("\t%s\tTest %d:\tShould not count the failed deployment, got %d.", failed, testID, d.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould not count the failed deployment.", success, testID)

			if n := len(d.ByOwner("bob")); n != 6 {
				t.Fatalf("\t%s\tTest %d:\tShould list the failed deployment for its owner, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould list the failed deployment for its owner.", success, testID)

			d.ConfirmBlock(7, []string{"contract_00"})
			records[0].Status = deployer.StatusFailed
			if rec, _ := d.Get("contract_00"); rec.Status != deployer.StatusDeployed || *rec.BlockNumber != 7 {
				t.Fatalf("\t%s\tTest %d:\tShould hand out copies: %+v", failed, testID, rec)
			}
			t.Logf("\t%s\tTest %d:\tShould hand out copies.", success, testID)
		}
	}
}
