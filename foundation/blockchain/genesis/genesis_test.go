package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btnlabs/blockchain/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	t.Log("Given the need to load the genesis information.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the genesis file does not exist.", testID)
		{
			gen, err := genesis.Load(filepath.Join(t.TempDir(), "missing.json"))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the default genesis: %v", failed, testID, err)
			}

			if gen.Difficulty != 2 || gen.OpsPerBlock == 0 {
				t.Fatalf("\t%s\tTest %d:\tShould get the default values: %+v", failed, testID, gen)
			}
			t.Logf("\t%s\tTest %d:\tShould get the default values.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the genesis file exists.", testID)
		{
			path := filepath.Join(t.TempDir(), "genesis.json")
			data := `{"chain_id":7,"difficulty":3,"balances":{"alice":500}}`
			if err := os.WriteFile(path, []byte(data), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %v", failed, testID, err)
			}

			gen, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to load the file.", success, testID)

			if gen.ChainID != 7 || gen.Difficulty != 3 || gen.Balances["alice"] != 500 {
				t.Fatalf("\t%s\tTest %d:\tShould get the file values: %+v", failed, testID, gen)
			}
			t.Logf("\t%s\tTest %d:\tShould get the file values.", success, testID)

			if gen.OpsPerBlock != genesis.Default().OpsPerBlock {
				t.Fatalf("\t%s\tTest %d:\tShould keep defaults for missing fields, got %d.", failed, testID, gen.OpsPerBlock)
			}
			t.Logf("\t%s\tTest %d:\tShould keep defaults for missing fields.", success, testID)
		}
	}
}
