package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/learnup/learnup/internal/ui/api"
	"github.com/learnup/learnup/logging"
)

const (
	defaultListen     = "127.0.0.1:4173"
	defaultAPITimeout = 10 * time.Second
	siteName          = "LearnUp"
)

// Options configures the UI HTTP server.
type Options struct {
	Listen       string
	APIBase      string
	APITimeout   time.Duration
	TemplatesDir string
	AssetsDir    string
	EnableWASM   bool
	Logger       *logging.Logger
	Client       *api.Client
	Templates    map[string]*template.Template
}

type server struct {
	client      *api.Client
	apiTimeout  time.Duration
	assetsDir   string
	stylesPath  string
	enableWASM  bool
	templates   map[string]*template.Template
	currentYear int
	logger      *logging.Logger
}

// NewHandler builds the UI routes, wrapped in request logging.
func NewHandler(opts Options) (http.Handler, error) {
	srv, err := newServer(opts)
	if err != nil {
		return nil, err
	}
	return logging.NewHTTPLogger(srv.logger).Middleware(srv.routes()), nil
}

func newServer(opts Options) (*server, error) {
	opts = applyDefaults(opts)

	tmpl := opts.Templates
	if tmpl == nil {
		loaded, err := loadTemplates(opts.TemplatesDir)
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		tmpl = loaded
	}

	assetsPath := ""
	if opts.AssetsDir != "" {
		abs, err := filepath.Abs(opts.AssetsDir)
		if err != nil {
			return nil, fmt.Errorf("resolve assets dir: %w", err)
		}
		assetsPath = abs
	}

	client := opts.Client
	if client == nil {
		created, err := api.New(opts.APIBase, api.WithTimeout(opts.APITimeout), api.WithLogger(opts.Logger))
		if err != nil {
			return nil, fmt.Errorf("create api client: %w", err)
		}
		client = created
	}

	return &server{
		client:      client,
		apiTimeout:  opts.APITimeout,
		assetsDir:   assetsPath,
		stylesPath:  "/styles.css",
		enableWASM:  opts.EnableWASM,
		templates:   tmpl,
		currentYear: time.Now().Year(),
		logger:      opts.Logger,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/healthz", handleHealth)
	mux.Handle("/styles.css", s.stylesHandler())
	mux.Handle("/main.wasm", s.assetHandler("main.wasm", "application/wasm"))
	mux.Handle("/wasm_exec.js", s.assetHandler("wasm_exec.js", "application/javascript"))
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Run starts the UI HTTP server and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, opts Options) error {
	opts = applyDefaults(opts)
	handler, err := NewHandler(opts)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              opts.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	opts.Logger.Info("general", "serving LearnUp UI", map[string]any{
		"listen":   "http://" + opts.Listen,
		"api_base": opts.APIBase,
		"wasm":     opts.EnableWASM,
	})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

func applyDefaults(opts Options) Options {
	if strings.TrimSpace(opts.Listen) == "" {
		opts.Listen = defaultListen
	}
	if strings.TrimSpace(opts.APIBase) == "" {
		opts.APIBase = api.DefaultBaseURL
	}
	if opts.APITimeout <= 0 {
		opts.APITimeout = defaultAPITimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("ui-server", logging.INFO, os.Stdout)
	}
	return opts
}
