package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/btnlabs/blockchain/app/services/node/handlers"
	"github.com/btnlabs/blockchain/business/web/errs"
	"github.com/btnlabs/blockchain/foundation/blockchain/contract"
	"github.com/btnlabs/blockchain/foundation/blockchain/contract/store/memory"
	storage "github.com/btnlabs/blockchain/foundation/blockchain/database/storage/memory"
	"github.com/btnlabs/blockchain/foundation/blockchain/genesis"
	"github.com/btnlabs/blockchain/foundation/blockchain/state"
	"github.com/btnlabs/blockchain/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type deployResp struct {
	ContractID string `json:"contractId"`
	Address    string `json:"address"`
	Status     string `json:"status"`
}

type deployedResp struct {
	Count     int `json:"count"`
	Contracts []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"contracts"`
}

func Test_ContractRoutes(t *testing.T) {
	st := newState(t)
	if _, err := st.DeployBuiltins(context.Background()); err != nil {
		t.Fatalf("unable to deploy builtins: %v", err)
	}

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	})

	t.Log("Given the need to manage contracts over the public api.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen deploying and calling a contract.", testID)
		{
			var dr deployResp
			spec := contract.DeploySpec{Name: "BTNToken", Code: "native:BTNToken", Owner: "alice", ABI: contract.Builtins()[0].ABI}
			w := request(t, mux, http.MethodPost, "/v1/contracts/deploy", spec)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould be able to deploy a contract : %d %s", failed, testID, w.Code, w.Body.String())
			}
			decode(t, w, &dr)
			if dr.Status != "deployed" || dr.ContractID == "" || len(dr.Address) != 42 {
				t.Fatalf("\t%s\tTest %d:\tShould get back the deployment : %+v", failed, testID, dr)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to deploy a contract.", success, testID)

			var deployed deployedResp
			w = request(t, mux, http.MethodGet, "/v1/contracts/deployed", nil)
			decode(t, w, &deployed)
			if deployed.Count != 3 || len(deployed.Contracts) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould count the builtins and the new contract : %d", failed, testID, deployed.Count)
			}
			t.Logf("\t%s\tTest %d:\tShould count the builtins and the new contract.", success, testID)

			w = request(t, mux, http.MethodGet, "/v1/contracts/"+dr.ContractID, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the contract : %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to retrieve the contract.", success, testID)

			call := map[string]any{"method": "mint", "params": []any{"alice", 25}, "caller": "alice"}
			w = request(t, mux, http.MethodPost, "/v1/contracts/"+dr.ContractID+"/call", call)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould be able to call the contract : %d %s", failed, testID, w.Code, w.Body.String())
			}

			var result struct {
				Result any `json:"result"`
			}
			call = map[string]any{"method": "balanceOf", "params": []any{"alice"}, "caller": "alice"}
			w = request(t, mux, http.MethodPost, "/v1/contracts/"+dr.ContractID+"/call", call)
			decode(t, w, &result)
			if result.Result != float64(25) {
				t.Fatalf("\t%s\tTest %d:\tShould see the minted balance : %v", failed, testID, result.Result)
			}
			t.Logf("\t%s\tTest %d:\tShould see the minted balance.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen sending bad requests.", testID)
		{
			tt := []struct {
				name   string
				method string
				path   string
				body   any
				status int
			}{
				{name: "missing", method: http.MethodGet, path: "/v1/contracts/contract_missing", status: http.StatusNotFound},
				{name: "noowner", method: http.MethodPost, path: "/v1/contracts/deploy", body: contract.DeploySpec{Name: "x"}, status: http.StatusBadRequest},
				{name: "badabi", method: http.MethodPost, path: "/v1/contracts/sync", body: contract.DeploySpec{Name: "x", Owner: "bob", ABI: []contract.ABIEntry{{Type: "nope"}}}, status: http.StatusBadRequest},
				{name: "nocaller", method: http.MethodPost, path: "/v1/contracts/contract_missing/call", body: map[string]any{"method": "mint"}, status: http.StatusBadRequest},
				{name: "transfer", method: http.MethodPost, path: "/v1/ops/transfer", body: map[string]any{"from": "bob", "to": "alice", "amount": 5}, status: http.StatusBadRequest},
			}

			for _, tst := range tt {
				w := request(t, mux, tst.method, tst.path, tst.body)
				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould get status %d for %s : %d %s", failed, testID, tst.status, tst.name, w.Code, w.Body.String())
				}

				var er errs.Response
				decode(t, w, &er)
				if er.Error == "" {
					t.Fatalf("\t%s\tTest %d:\tShould get an error message for %s.", failed, testID, tst.name)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get the right status for each bad request.", success, testID)
		}
	}
}

func Test_NodeRoutes(t *testing.T) {
	st := newState(t)

	mux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
	})

	t.Log("Given the need for nodes to talk to each other.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen asking for status and blocks.", testID)
		{
			w := request(t, mux, http.MethodGet, "/v1/node/status", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get the node status : %d", failed, testID, w.Code)
			}

			var status struct {
				ChainLength int `json:"chain_length"`
			}
			decode(t, w, &status)
			if status.ChainLength != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould report only the genesis block : %d", failed, testID, status.ChainLength)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to get the node status.", success, testID)

			w = request(t, mux, http.MethodGet, "/v1/node/block/list/5/latest", nil)
			if w.Code != http.StatusNoContent {
				t.Fatalf("\t%s\tTest %d:\tShould get no content past the tip : %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould get no content past the tip.", success, testID)

			w = request(t, mux, http.MethodGet, "/v1/node/block/list/0/latest", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould get the genesis block : %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould get the genesis block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a peer shares a contract.", testID)
		{
			spec := contract.DeploySpec{Name: "Shared", Owner: "bob", ABI: contract.Builtins()[1].ABI}
			w := request(t, mux, http.MethodPost, "/v1/node/contracts/sync", spec)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould accept the shared contract : %d %s", failed, testID, w.Code, w.Body.String())
			}

			if n := len(st.RetrieveContractsByOwner("bob")); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould register the shared contract : %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould register the shared contract.", success, testID)
		}
	}
}

// =============================================================================

func newState(t *testing.T) *state.State {
	gen := genesis.Default()
	gen.Balances = map[string]uint64{"alice": 1000}

	st, err := state.New(context.Background(), state.Config{
		Beneficiary:   "miner1",
		Host:          "localhost:9080",
		Genesis:       gen,
		Storage:       storage.New(),
		ContractStore: memory.New(),
	})
	if err != nil {
		t.Fatalf("unable to create state: %v", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	return st
}

func request(t *testing.T, h http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("unable to encode body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("unable to decode response %q: %v", w.Body.String(), err)
	}
}
