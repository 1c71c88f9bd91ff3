package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// CollectCode listens on addr for the OAuth redirect and returns the
// authorization code from the first request received. The listening
// port is released on success, error and cancellation alike.
func CollectCode(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("starting callback listener: %w", err)
	}

	type callback struct {
		code string
		err  error
	}
	results := make(chan callback, 1)
	var once sync.Once

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Debounce: only the first request counts.
			once.Do(func() {
				q := r.URL.Query()
				if e := q.Get("error"); e != "" {
					results <- callback{err: fmt.Errorf("authorization failed: %s", e)}
					return
				}
				code := q.Get("code")
				if code == "" {
					results <- callback{err: errors.New("authorization redirect carried no code")}
					return
				}
				results <- callback{code: code}
			})
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "Token received.")
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			srv.Close()
		}
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case err := <-serveErr:
		return "", fmt.Errorf("callback listener: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
