package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

const callbackPath = "/callback"

const (
	successPage = "<html><body><h3>Signed in to simplegit.</h3><p>You can close this window.</p></body></html>"
	failurePage = "<html><body><h3>Sign-in failed.</h3><p>%s</p></body></html>"
)

// redirectHandler receives the provider redirect for one session
type redirectHandler interface {
	HandleRedirect(ctx context.Context, code, sessionID string) error
	fail(sessionID, reason string)
}

// callbackServer is the loopback listener that receives the provider redirect
type callbackServer struct {
	ln   net.Listener
	srv  *http.Server
	once sync.Once
}

func startCallbackServer(host string, h redirectHandler) (*callbackServer, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state := q.Get("state")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if providerErr := q.Get("error"); providerErr != "" {
			reason := providerErr
			if desc := q.Get("error_description"); desc != "" {
				reason = fmt.Sprintf("%s: %s", providerErr, desc)
			}
			h.fail(state, reason)
			fmt.Fprintf(w, failurePage, reason)
			return
		}

		code := q.Get("code")
		if code == "" || state == "" {
			http.Error(w, "missing code or state", http.StatusBadRequest)
			return
		}
		if err := h.HandleRedirect(context.WithoutCancel(r.Context()), code, state); err != nil {
			fmt.Fprintf(w, failurePage, "The authorization code could not be exchanged.")
			return
		}
		fmt.Fprint(w, successPage)
	})

	c := &callbackServer{
		ln:  ln,
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}
	go func() { _ = c.srv.Serve(ln) }()
	return c, nil
}

// RedirectURL is the URL registered with the provider for this listener
func (c *callbackServer) RedirectURL() string {
	return "http://" + c.ln.Addr().String() + callbackPath
}

// Close stops accepting connections at once and lets an in-flight
// callback response finish in the background.
func (c *callbackServer) Close() {
	c.once.Do(func() {
		c.srv.SetKeepAlivesEnabled(false)
		_ = c.ln.Close()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = c.srv.Shutdown(ctx)
		}()
	})
}
