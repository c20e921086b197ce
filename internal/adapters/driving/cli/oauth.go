package cli

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// ErrCallbackTimeout is returned when the browser never comes back.
var ErrCallbackTimeout = errors.New("timed out waiting for the authorisation redirect")

type callbackResult struct {
	code string
	err  error
}

// CallbackListener receives the Google OAuth redirect on a loopback port.
// The first redirect settles it; later ones only get a page back.
type CallbackListener struct {
	state  string
	ln     net.Listener
	srv    *http.Server
	result chan callbackResult
	once   sync.Once
}

// ListenForCallback binds the first free port in [minPort, maxPort] and
// starts serving /callback. The listener is held open, so the port cannot
// be taken between choosing it and building the consent URL.
func ListenForCallback(minPort, maxPort int, state string) (*CallbackListener, error) {
	for port := minPort; port <= maxPort; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			continue
		}

		l := &CallbackListener{
			state:  state,
			ln:     ln,
			result: make(chan callbackResult, 1),
		}
		mux := http.NewServeMux()
		mux.Handle("/callback", l)
		l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		go func() {
			if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.settle(callbackResult{err: fmt.Errorf("callback server: %w", err)})
			}
		}()
		return l, nil
	}
	return nil, fmt.Errorf("no free port between %d and %d for the OAuth redirect", minPort, maxPort)
}

// Port is the bound loopback port.
func (l *CallbackListener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// RedirectURL is the URL to register with the OAuth client.
func (l *CallbackListener) RedirectURL() string {
	return fmt.Sprintf("http://localhost:%d/callback", l.Port())
}

func (l *CallbackListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var res callbackResult
	switch {
	case q.Get("error") != "":
		res.err = fmt.Errorf("consent refused: %s %s", q.Get("error"), q.Get("error_description"))
	case q.Get("state") != l.state:
		res.err = errors.New("redirect state does not match the request")
	case q.Get("code") == "":
		res.err = errors.New("redirect carried no authorisation code")
	default:
		res.code = q.Get("code")
	}
	l.settle(res)

	page := callbackPage{Heading: "Google Drive connected", Detail: "You can close this tab and return to docchat."}
	if res.err != nil {
		w.WriteHeader(http.StatusBadRequest)
		page = callbackPage{Heading: "Authorisation failed", Detail: res.err.Error()}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = callbackTemplate.Execute(w, page)
}

func (l *CallbackListener) settle(res callbackResult) {
	l.once.Do(func() { l.result <- res })
}

// Wait returns the authorisation code once the redirect arrives.
func (l *CallbackListener) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-l.result:
		return res.code, res.err
	case <-timer.C:
		return "", ErrCallbackTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the server.
func (l *CallbackListener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}

type callbackPage struct {
	Heading string
	Detail  string
}

var callbackTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><title>docchat</title></head>
<body style="font-family: sans-serif; margin: 4em auto; max-width: 32em;">
<h2>{{.Heading}}</h2>
<p>{{.Detail}}</p>
</body>
</html>`))

// openBrowser opens url with the platform's default handler.
var openBrowser = func(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
