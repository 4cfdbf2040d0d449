//go:build js && wasm

package wasm

import (
	"strings"
	"syscall/js"

	"github.com/learnup/learnup/internal/ui/api"
	"github.com/learnup/learnup/internal/ui/model"
)

// apiBaseGlobal names an optional window property holding the backend URL.
const apiBaseGlobal = "LEARNUP_API_BASE"

// RunApp takes over the server-rendered auth form, if the page has one, and
// blocks forever.
func RunApp() {
	window := js.Global()
	doc := window.Get("document")
	root := doc.Call("getElementById", "app-root")
	if !root.Truthy() {
		return
	}

	kind := formKind(root, window.Get("location").Get("pathname").String())
	if !kind.Valid() {
		return
	}

	client, err := api.New(apiBase(window, root))
	if err != nil {
		consoleWarn("learnup: api client unavailable", err.Error())
		return
	}
	app, err := newAuthApp(doc, root, kind, client)
	if err != nil {
		consoleWarn("learnup: form unavailable", err.Error())
		return
	}
	app.render()

	select {}
}

func formKind(root js.Value, pathname string) model.AuthKind {
	if attr := root.Get("dataset").Get("form"); attr.Type() == js.TypeString {
		return model.AuthKind(strings.TrimSpace(attr.String()))
	}
	switch strings.TrimSuffix(pathname, "/") {
	case "/signup":
		return model.AuthSignup
	case "/login":
		return model.AuthLogin
	default:
		return ""
	}
}

func apiBase(window, root js.Value) string {
	if attr := root.Get("dataset").Get("apiBase"); attr.Type() == js.TypeString && attr.String() != "" {
		return attr.String()
	}
	if global := window.Get(apiBaseGlobal); global.Type() == js.TypeString {
		return global.String()
	}
	return api.DefaultBaseURL
}
