//go:build js && wasm

package wasm

import (
	"context"
	"html"
	"net/url"
	"strings"
	"syscall/js"
	"time"

	"github.com/learnup/learnup/internal/ui/forms"
	"github.com/learnup/learnup/internal/ui/model"
)

const submitTimeout = 15 * time.Second

// authApp binds one authentication form to the DOM.
type authApp struct {
	doc        js.Value
	root       js.Value
	controller *forms.Controller
	handlers   handlerSet
}

// startNotifier calls onStart once the controller has entered Submitting, so
// the disabled form is on screen while the request runs.
type startNotifier struct {
	inner   forms.Authenticator
	onStart func()
}

func (n startNotifier) Authenticate(ctx context.Context, kind model.AuthKind, email, password string) (model.AuthResponse, error) {
	if n.onStart != nil {
		n.onStart()
	}
	return n.inner.Authenticate(ctx, kind, email, password)
}

func newAuthApp(doc, root js.Value, kind model.AuthKind, auth forms.Authenticator) (*authApp, error) {
	app := &authApp{doc: doc, root: root}
	controller, err := forms.NewController(kind,
		startNotifier{inner: auth, onStart: func() { onNextTick(app.render) }},
		forms.WithNavigator(forms.NavigatorFunc(navigate)),
	)
	if err != nil {
		return nil, err
	}
	app.controller = controller
	return app, nil
}

func navigate(_ context.Context, path, message string) {
	target := path
	if message != "" {
		target += "?message=" + url.QueryEscape(message)
	}
	js.Global().Get("location").Set("href", target)
}

func (a *authApp) render() {
	focus := captureFocusSnapshot(a.doc)
	a.handlers.release()
	a.root.Set("innerHTML", renderAuthForm(forms.BuildFormView(a.controller.State())))
	a.bind()
	restoreFocusSnapshot(a.doc, focus)
}

func (a *authApp) bind() {
	forEachNode(a.root.Call("querySelectorAll", "input[data-field]"), func(input js.Value) {
		a.handlers.add(input, "input", func(this js.Value, _ []js.Value) any {
			field := model.Field(this.Get("dataset").Get("field").String())
			hadError := a.controller.State().Error(field) != ""
			a.controller.OnFieldChange(field, this.Get("value").String())
			if hadError {
				a.render()
			}
			return nil
		})
	})

	form := a.root.Call("querySelector", "form")
	a.handlers.add(form, "submit", func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			args[0].Call("preventDefault")
		}
		go a.submit()
		return nil
	})
}

func (a *authApp) submit() {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	result := a.controller.Submit(ctx)
	if result == forms.SubmitBusy {
		return
	}
	onNextTick(a.render)
}

// renderAuthForm builds the form markup. Every dynamic value is escaped and
// messages additionally pass through the HTML sanitizer.
func renderAuthForm(view forms.FormView) string {
	var b strings.Builder
	b.WriteString(`<div class="auth-card">`)
	b.WriteString(`<h2 class="auth-title">` + html.EscapeString(view.Title) + `</h2>`)
	b.WriteString(`<p class="auth-subtitle">` + html.EscapeString(view.Subtitle) + `</p>`)
	if view.SuccessMessage != "" {
		b.WriteString(`<div class="success-message" role="status">` + forms.SafeHTMLText(view.SuccessMessage) + `</div>`)
	}
	if view.SubmitError != "" {
		b.WriteString(`<div class="error-message submit-error" role="alert">` + forms.SafeHTMLText(view.SubmitError) + `</div>`)
	}

	b.WriteString(`<form class="auth-form" novalidate>`)
	disabled := ""
	if view.Disabled {
		disabled = " disabled"
	}
	for _, field := range view.Fields {
		groupClass := "form-group"
		if field.Error != "" {
			groupClass += " has-error"
		}
		id := "field-" + string(field.Field)
		b.WriteString(`<div class="` + groupClass + `">`)
		b.WriteString(`<label for="` + id + `">` + html.EscapeString(field.Label) + `</label>`)
		b.WriteString(`<input id="` + id + `" name="` + string(field.Field) + `" data-field="` + string(field.Field) + `"`)
		b.WriteString(` type="` + field.InputType + `" placeholder="` + html.EscapeString(field.Placeholder) + `"`)
		b.WriteString(` value="` + html.EscapeString(field.Value) + `"` + disabled + ` />`)
		if field.Error != "" {
			b.WriteString(`<span class="field-error" data-field="` + string(field.Field) + `">` + html.EscapeString(field.Error) + `</span>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`<button type="submit" class="submit-button"` + disabled + `>` + html.EscapeString(view.SubmitLabel) + `</button>`)
	b.WriteString(`</form>`)
	b.WriteString(`<p class="auth-alt">` + html.EscapeString(view.AltPrompt) + ` <a href="` + view.AltHref + `">` + html.EscapeString(view.AltLabel) + `</a></p>`)
	b.WriteString(`</div>`)
	return b.String()
}
