package server

import (
	"net/http"
	"strings"
)

const maxFlashLength = 200

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flash := strings.TrimSpace(r.URL.Query().Get("message"))
	if runes := []rune(flash); len(runes) > maxFlashLength {
		flash = string(runes[:maxFlashLength])
	}

	data := homePageData{
		basePageData: s.buildBasePageData(""),
		Flash:        flash,
	}
	s.render(w, r, "home", data, http.StatusOK)
}
