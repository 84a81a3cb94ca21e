package mempool_test

import (
	"testing"

	"github.com/btnlabs/blockchain/foundation/blockchain/database"
	"github.com/btnlabs/blockchain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCRUD(t *testing.T) {
	t.Log("Given the need to validate mempool api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a set of operations.", testID)
		{
			mp := mempool.New()

			var ops []database.Op
			for i := 0; i < 4; i++ {
				op := database.NewOp(database.OpTransfer, "bill", "ed", uint64(i+1), nil)
				ops = append(ops, op)
				mp.Upsert(op)
			}

			if mp.Count() != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add operations, got %d.", failed, testID, mp.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add operations.", success, testID)

			replaced := ops[0]
			replaced.Amount = 99
			if n := mp.Upsert(replaced); n != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould replace an operation with the same id, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould replace an operation with the same id.", success, testID)

			best := mp.PickBest(2)
			if len(best) != 2 || best[0].ID != ops[0].ID || best[1].ID != ops[1].ID {
				t.Fatalf("\t%s\tTest %d:\tShould pick the oldest operations first.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould pick the oldest operations first.", success, testID)

			if best[0].Amount != 99 {
				t.Fatalf("\t%s\tTest %d:\tShould see the replaced operation, got amount %d.", failed, testID, best[0].Amount)
			}
			t.Logf("\t%s\tTest %d:\tShould see the replaced operation.", success, testID)

			mp.Delete(ops[1].ID)
			if all := mp.PickBest(-1); len(all) != 3 || all[1].ID != ops[2].ID {
				t.Fatalf("\t%s\tTest %d:\tShould be able to delete an operation.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to delete an operation.", success, testID)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould be able to truncate the pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to truncate the pool.", success, testID)
		}
	}
}
