package server

import (
	"github.com/learnup/learnup/internal/ui/forms"
	"github.com/learnup/learnup/internal/ui/model"
)

type navAction struct {
	Label string
	Href  string
	Class string
}

type basePageData struct {
	PageTitle      string
	StylesheetPath string
	SiteName       string
	CurrentYear    int
	Nav            []navAction
	WASM           bool
}

type homePageData struct {
	basePageData
	Flash string
}

type authPageData struct {
	basePageData
	Form       forms.FormView
	FormAction string
	APIBase    string
}

// buildBasePageData constructs the basePageData shared by every page.
func (s *server) buildBasePageData(title string) basePageData {
	if title == "" {
		title = siteName
	} else {
		title = title + " · " + siteName
	}
	return basePageData{
		PageTitle:      title,
		StylesheetPath: s.stylesPath,
		SiteName:       siteName,
		CurrentYear:    s.currentYear,
		Nav: []navAction{
			{Label: "Login", Href: "/login", Class: "login-button"},
			{Label: "Sign Up", Href: "/signup", Class: "signup-button"},
		},
	}
}

func (s *server) buildAuthPageData(state model.AuthFormState) authPageData {
	view := forms.BuildFormView(state)
	base := s.buildBasePageData(view.Title)
	base.WASM = s.enableWASM
	return authPageData{
		basePageData: base,
		Form:         view,
		FormAction:   authPath(state.Kind),
		APIBase:      s.client.BaseURL(),
	}
}

func authPath(kind model.AuthKind) string {
	return "/" + kind.Label()
}
