package public

import (
	"net/http"

	"github.com/btnlabs/blockchain/foundation/blockchain/state"
	"github.com/btnlabs/blockchain/foundation/events"
	"github.com/btnlabs/blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	const version = "v1"

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/balances/list", pbl.Balances)
	app.Handle(http.MethodGet, version, "/balances/list/:name", pbl.Balances)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.BlocksByName)
	app.Handle(http.MethodGet, version, "/blocks/list/:name", pbl.BlocksByName)
	app.Handle(http.MethodGet, version, "/blocks/latest", pbl.LatestBlock)
	app.Handle(http.MethodGet, version, "/chain/validate", pbl.ValidateChain)
	app.Handle(http.MethodGet, version, "/mining/signal", pbl.SignalMining)
	app.Handle(http.MethodGet, version, "/mining/hashcount", pbl.HashCount)
	app.Handle(http.MethodGet, version, "/ops/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/ops/transfer", pbl.SubmitTransfer)

	app.Handle(http.MethodGet, version, "/contracts", pbl.Contracts)
	app.Handle(http.MethodGet, version, "/contracts/owner/:owner", pbl.ContractsByOwner)
	app.Handle(http.MethodGet, version, "/contracts/deployed", pbl.DeployedContracts)
	app.Handle(http.MethodGet, version, "/contracts/templates", pbl.Templates)
	app.Handle(http.MethodGet, version, "/contracts/events", pbl.ContractEvents)
	app.Handle(http.MethodPost, version, "/contracts/deploy", pbl.DeployContract)
	app.Handle(http.MethodPost, version, "/contracts/sync", pbl.SyncContract)
	app.Handle(http.MethodGet, version, "/contracts/:id", pbl.ContractByID)
	app.Handle(http.MethodGet, version, "/contracts/:id/events", pbl.ContractEvents)
	app.Handle(http.MethodPost, version, "/contracts/:id/call", pbl.CallContract)
}
