package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/learnup/learnup/internal/ui/model"
)

// Session relays one browser's cookies to the backend and collects the cookies
// the backend sets in return. It never touches the client's shared cookie jar,
// so a server can hold one Client for every visitor.
type Session struct {
	client   *Client
	http     *http.Client
	outgoing []*http.Cookie

	mu       sync.Mutex
	received []*http.Cookie
}

// NewSession returns a Session that sends cookies with each request.
func (c *Client) NewSession(cookies []*http.Cookie) *Session {
	hc := *c.http
	hc.Jar = nil
	return &Session{
		client:   c,
		http:     &hc,
		outgoing: cookies,
	}
}

// Authenticate behaves like Client.Authenticate with the session's cookies.
func (s *Session) Authenticate(ctx context.Context, kind model.AuthKind, email, password string) (model.AuthResponse, error) {
	return s.client.send(ctx, s.http, kind, email, password, s.decorate, s.observe)
}

// Cookies returns the cookies set by the backend during this session.
func (s *Session) Cookies() []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*http.Cookie, len(s.received))
	copy(out, s.received)
	return out
}

func (s *Session) decorate(req *http.Request) {
	for _, cookie := range s.outgoing {
		if cookie != nil {
			req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		}
	}
}

func (s *Session) observe(resp *http.Response) {
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return
	}
	s.mu.Lock()
	s.received = append(s.received, cookies...)
	s.mu.Unlock()
}
