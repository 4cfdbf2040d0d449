package server

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

func (s *server) render(w http.ResponseWriter, r *http.Request, name string, data any, status int) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.logger.Error("general", "missing template", nil, map[string]any{"template": name})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("general", "render template", err, map[string]any{
			"template": name,
			"path":     r.URL.Path,
		})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status > 0 {
		w.WriteHeader(status)
	}
	_, _ = buf.WriteTo(w)
}

// stylesHandler serves styles.css from the assets dir when present, falling
// back to the embedded sheet.
func (s *server) stylesHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		if s.assetsDir != "" {
			path := filepath.Join(s.assetsDir, "styles.css")
			if _, err := os.Stat(path); err == nil {
				http.ServeFile(w, r, path)
				return
			}
		}
		_, _ = w.Write(embeddedStyles)
	})
}

func (s *server) assetHandler(name, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.assetsDir == "" {
			http.NotFound(w, r)
			return
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		http.ServeFile(w, r, filepath.Join(s.assetsDir, name))
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// relayCookies copies cookies set by the backend onto the browser response.
// The domain is dropped so the browser scopes them to the UI host.
func relayCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		if cookie == nil || strings.TrimSpace(cookie.Name) == "" {
			continue
		}
		relayed := *cookie
		relayed.Domain = ""
		http.SetCookie(w, &relayed)
	}
}
