// Package testsrv is a mock HMRC VAT service for integration testing.
// It reproduces the OAuth endpoints and the VAT data endpoints'
// request/response contracts against a per-VRN in-memory store.
// Nothing here should ever see real taxpayer data.
package testsrv

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

// Config controls the mock service's credentials and behaviour.
// Zero-value fields fall back to fixed test defaults.
type Config struct {
	// Secret seeds the issued bearer token; data endpoints require it.
	Secret string
	// RefreshToken is the fixed refresh token handed out and accepted.
	RefreshToken string
	// ClientID/ClientSecret are the accepted OAuth client credentials.
	ClientID     string
	ClientSecret string
	// Username/Password, when set, are required at the login form.
	Username string
	Password string
	// DumpHeaders logs every request's headers.
	DumpHeaders bool
}

// Server is the mock HMRC API.
type Server struct {
	cfg   Config
	store *Store
	log   zerolog.Logger

	mu       sync.Mutex
	code     string
	captured map[string]string
}

// New creates a server over a template dataset.
func New(tmpl *VATUser, cfg Config) *Server {
	if cfg.Secret == "" {
		cfg.Secret = "1KGHk9KDMCjAu0Sr"
	}
	if cfg.RefreshToken == "" {
		cfg.RefreshToken = "67890"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "test-client-id"
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = "test-client-secret"
	}
	return &Server{
		cfg:      cfg,
		store:    NewStore(tmpl),
		log:      log.With().Str("component", "testsrv").Logger(),
		captured: make(map[string]string),
	}
}

// Routes builds the service's router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/oauth/authorize", s.authorize)
	r.Get("/oauth/login", s.login)
	r.Post("/oauth/token", s.token)
	r.Get("/test/fraud-prevention-headers/validate", s.fraudValidate)
	r.Get("/captured-headers", s.capturedHeaders)

	r.Route("/organisations/vat/{vrn}", func(r chi.Router) {
		r.Get("/obligations", s.obligations)
		r.Get("/liabilities", s.liabilities)
		r.Get("/payments", s.payments)
		r.Get("/returns/{periodKey}", s.getReturn)
		r.Post("/returns", s.submitReturn)
	})

	return r
}

// checkAuth enforces the bearer-token check on data endpoints.
func (s *Server) checkAuth(w http.ResponseWriter, r *http.Request) bool {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] != s.cfg.Secret {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return false
	}
	return true
}

// handleHeaders captures Gov-* headers for later inspection via
// /captured-headers.
func (s *Server) handleHeaders(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, vs := range r.Header {
		if strings.HasPrefix(strings.ToLower(k), "gov-") && len(vs) > 0 {
			s.captured[k] = vs[0]
		}
		if s.cfg.DumpHeaders && len(vs) > 0 {
			s.log.Info().Str("header", k).Str("value", vs[0]).Msg("request header")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.Encode(v)
}

var loginForm = template.Must(template.New("login").Parse(`<html>
  <body>
    <h1>Test system, don't enter real creds in here</h1>
    <form action="/oauth/login" method="get">
      <p>Creds are ignored anyway, just press submit.</p>
      <div>
	<label for="username">Username</label>
	<input name="username" type="text">
      </div>
      <div>
	<label for="password">Password</label>
	<input name="password" type="password">
      </div>
      <input name="client_id" type="hidden" value="{{.ClientID}}">
      <input name="state" type="hidden" value="{{.State}}">
      <input name="scope" type="hidden" value="{{.Scope}}">
      <input name="redirect_uri" type="hidden" value="{{.Redirect}}">
      <button type="submit">Submit</button>
    </form>
  </body>
</html>
`))

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("client_id") == "" || q.Get("scope") == "" || q.Get("redirect_uri") == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	loginForm.Execute(w, map[string]string{
		"ClientID": q.Get("client_id"),
		"State":    q.Get("state"),
		"Scope":    q.Get("scope"),
		"Redirect": q.Get("redirect_uri"),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirect := q.Get("redirect_uri")
	if q.Get("client_id") == "" || q.Get("scope") == "" || redirect == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if s.cfg.Username != "" && s.cfg.Username != q.Get("username") {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if s.cfg.Password != "" && s.cfg.Password != q.Get("password") {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	buf := make([]byte, 16)
	rand.Read(buf)
	code := hex.EncodeToString(buf)

	s.mu.Lock()
	s.code = code
	s.mu.Unlock()

	params := url.Values{"code": {code}}
	if state := q.Get("state"); state != "" {
		params.Set("state", state)
	}

	target := redirect + "?" + params.Encode()
	s.log.Info().Str("url", target).Msg("redirecting with authorization code")
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if r.PostForm.Get("client_id") != s.cfg.ClientID ||
		r.PostForm.Get("client_secret") != s.cfg.ClientSecret {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.mu.Lock()
		code := s.code
		s.mu.Unlock()
		if code == "" || r.PostForm.Get("code") != code {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
	case "refresh_token":
		if r.PostForm.Get("refresh_token") != s.cfg.RefreshToken {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
	default:
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  s.cfg.Secret,
		"refresh_token": s.cfg.RefreshToken,
		"token_type":    "bearer",
		"expires_in":    1440,
	})
}

func (s *Server) fraudValidate(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(w, r) {
		return
	}
	s.handleHeaders(r)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) capturedHeaders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make(map[string]string, len(s.captured))
	for k, v := range s.captured {
		out[k] = v
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// dateRange parses optional from/to query parameters.
func dateRange(q url.Values) (start, end model.Date, ok bool) {
	var err error
	if v := q.Get("from"); v != "" {
		if start, err = model.ParseDate(v); err != nil {
			return model.Date{}, model.Date{}, false
		}
	}
	if v := q.Get("to"); v != "" {
		if end, err = model.ParseDate(v); err != nil {
			return model.Date{}, model.Date{}, false
		}
	}
	return start, end, true
}

func (s *Server) obligations(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(w, r) {
		return
	}
	s.handleHeaders(r)

	q := r.URL.Query()
	start, end, ok := dateRange(q)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	status := q.Get("status")
	vrn := chi.URLParam(r, "vrn")

	matched := []model.Obligation{}
	s.store.With(vrn, func(u *VATUser) error {
		for _, o := range u.Obligations {
			if !start.IsZero() && !end.IsZero() && !o.InRange(start, end) {
				continue
			}
			if status != "" && o.Status != model.ObligationStatus(status) {
				continue
			}
			matched = append(matched, o)
		}
		return nil
	})

	writeJSON(w, http.StatusOK, map[string]any{"obligations": matched})
}

func (s *Server) liabilities(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(w, r) {
		return
	}
	s.handleHeaders(r)

	start, end, ok := dateRange(r.URL.Query())
	if !ok || start.IsZero() || end.IsZero() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	vrn := chi.URLParam(r, "vrn")

	matched := []model.Liability{}
	s.store.With(vrn, func(u *VATUser) error {
		for _, l := range u.Liabilities {
			if l.InRange(start, end) {
				matched = append(matched, l)
			}
		}
		return nil
	})

	writeJSON(w, http.StatusOK, map[string]any{"liabilities": matched})
}

func (s *Server) payments(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(w, r) {
		return
	}
	s.handleHeaders(r)

	start, end, ok := dateRange(r.URL.Query())
	if !ok || start.IsZero() || end.IsZero() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	vrn := chi.URLParam(r, "vrn")

	matched := []model.Payment{}
	s.store.With(vrn, func(u *VATUser) error {
		for _, p := range u.Payments {
			if p.InRange(start, end) {
				matched = append(matched, p)
			}
		}
		return nil
	})

	writeJSON(w, http.StatusOK, map[string]any{"payments": matched})
}

func (s *Server) getReturn(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(w, r) {
		return
	}
	s.handleHeaders(r)

	vrn := chi.URLParam(r, "vrn")
	key := chi.URLParam(r, "periodKey")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}

	var found *model.Return
	s.store.With(vrn, func(u *VATUser) error {
		for _, rtn := range u.Returns {
			if rtn.PeriodKey == key {
				found = &rtn
				break
			}
		}
		return nil
	})

	if found == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) submitReturn(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(w, r) {
		return
	}
	s.handleHeaders(r)

	var rtn model.Return
	if err := json.NewDecoder(r.Body).Decode(&rtn); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if !rtn.Finalised {
		writeJSON(w, http.StatusBadRequest,
			map[string]string{"message": "return is not finalised"})
		return
	}

	vrn := chi.URLParam(r, "vrn")
	err := s.store.With(vrn, func(u *VATUser) error {
		return u.AddReturn(rtn)
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	s.log.Info().Str("vrn", vrn).Str("periodKey", rtn.PeriodKey).Msg("return submitted")

	writeJSON(w, http.StatusCreated, model.SubmissionReceipt{
		ProcessingDate:   time.Now().UTC().Format(time.RFC3339),
		PaymentIndicator: "BANK",
		FormBundleNumber: uuid.NewString(),
		ChargeRefNumber:  uuid.NewString(),
	})
}

// ListenAndServe runs the mock service until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("mock HMRC service listening")
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return fmt.Errorf("test service: %w", srv.ListenAndServe())
}
