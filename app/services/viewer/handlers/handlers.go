// Package handlers contains the full set of handler functions and routes
// supported by the viewer.
package handlers

import (
	"net/http"
	"os"

	"github.com/btnlabs/blockchain/business/web/mid"
	"github.com/btnlabs/blockchain/foundation/web"
	"go.uber.org/zap"
)

// UIMux constructs an http.Handler with all application routes defined.
func UIMux(build string, nodeHost string, shutdown chan os.Signal, log *zap.SugaredLogger) (*web.App, error) {
	app := web.NewApp(
		shutdown,
		mid.Logger(log),
		mid.Errors(log),
		mid.Panics(),
	)

	ig, err := newIndex(build, nodeHost)
	if err != nil {
		return nil, err
	}
	app.Handle(http.MethodGet, "", "/", ig.handler)

	return app, nil
}
