package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrStateMismatch is returned when the callback's state does not match the
// one sent with the authorization request.
var ErrStateMismatch = errors.New("oauth state mismatch")

const callbackPage = `<!doctype html><html><body style="font-family:sans-serif">
<p>%s</p><p>You can close this window and return to the terminal.</p></body></html>`

type callbackResult struct {
	code string
	err  error
}

// Login runs the authorization-code flow against a loopback listener on the
// redirect URI: it opens the authorization URL, waits for the callback,
// checks state, and exchanges the code. open may be nil to skip launching a
// browser.
func (c *Client) Login(ctx context.Context, w io.Writer, open BrowserOpener) (string, error) {
	redirect, err := url.Parse(c.cfg.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("parsing redirect URI: %w", err)
	}
	if redirect.Scheme != "http" {
		return "", fmt.Errorf("redirect URI %q must be an http loopback address", c.cfg.RedirectURI)
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("starting callback listener on %s: %w", redirect.Host, err)
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(rw http.ResponseWriter, r *http.Request) {
		res := parseCallback(r.URL.Query(), state)
		msg := "Signed in. Returning to copilotstatus."
		if res.err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			msg = "Sign-in failed: " + res.err.Error()
		}
		_, _ = fmt.Fprintf(rw, callbackPage, msg)
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Close() }()

	authURL := c.AuthCodeURL(state, verifier)
	writeOpening(w, authURL)
	if open != nil {
		open(authURL)
	}
	writeWaiting(w)

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			writeTimeout(w)
		}
		return "", ctx.Err()
	case res := <-results:
		if res.err != nil {
			writeDenied(w, res.err.Error())
			return "", res.err
		}
		return c.Exchange(ctx, res.code, verifier)
	}
}

func parseCallback(q url.Values, wantState string) callbackResult {
	if e := q.Get("error"); e != "" {
		return callbackResult{err: &AuthExchangeError{Code: e, Description: q.Get("error_description")}}
	}
	if q.Get("state") != wantState {
		return callbackResult{err: ErrStateMismatch}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: errors.New("callback did not include an authorization code")}
	}
	return callbackResult{code: code}
}
