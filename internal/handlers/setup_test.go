package handlers

import (
	"net/http"

	"github.com/dimitrije/pod-console/internal/middleware"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
)

type route struct {
	method  string
	path    string
	handler drift.HandlerFunc
}

// newTestApp mounts routes behind a middleware that signs in a as the
// current admin. A nil actor leaves the request unauthenticated.
func newTestApp(a session.Actor, routes ...route) http.Handler {
	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(func(c *drift.Context) {
		if a != nil {
			c.Set(middleware.ActorKey, a)
		}
		c.Next()
	})
	for _, r := range routes {
		switch r.method {
		case http.MethodGet:
			app.Get(r.path, r.handler)
		case http.MethodPost:
			app.Post(r.path, r.handler)
		case http.MethodPatch:
			app.Patch(r.path, r.handler)
		case http.MethodDelete:
			app.Delete(r.path, r.handler)
		}
	}
	return app
}
