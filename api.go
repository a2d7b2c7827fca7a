package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

var (
	ErrUnauthorized = errors.New("No token provided")
	ErrForbidden    = errors.New("Invalid token")
	ErrBadRequest   = errors.New("invalid request body")
)

const (
	MaxBodySize     = 20 << 20 // 20MB, images travel inline as base64
	RequestIDHeader = "X-Request-ID"
)

type APIServer struct {
	store         *Store
	listenAddr    string
	jwtSecret     []byte
	hashPasswords bool
	maxBodyBytes  int64
}

func NewAPIServer(store *Store, cfg Config) *APIServer {
	return &APIServer{
		store:         store,
		listenAddr:    cfg.ListenAddr(),
		jwtSecret:     cfg.JWTSecret,
		hashPasswords: cfg.HashPasswords,
		maxBodyBytes:  cmp.Or(cfg.MaxBodyBytes, MaxBodySize),
	}
}

type APIFunc func(w http.ResponseWriter, r *http.Request) error

func makeHandler(f APIFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}

		var statusError *StatusError
		if !errors.As(err, &statusError) {
			statusError = &StatusError{Err: err, Status: statusFor(err)}
		}

		logger := requestLogger(r.Context())
		if statusError.Status >= http.StatusInternalServerError {
			logger.Error("Writing an error to response", "error", err, "status", statusError.Status)
		} else {
			logger.Debug("Writing API Status Error to response", "error", err, "status", statusError.Status)
		}

		writeJSON(w, statusError.Status, statusError)
	}
}

// statusFor maps the package's sentinel errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type StatusError struct {
	Err    error
	Status int
}

func (a *StatusError) Error() string {
	if a.Err != nil {
		return a.Err.Error()
	}

	return http.StatusText(a.Status)
}

func (a *StatusError) Unwrap() error {
	return a.Err
}

func (a *StatusError) MarshalJSON() ([]byte, error) {
	msg := a.Error()
	if a.Status >= http.StatusInternalServerError && !errors.Is(a.Err, ErrParse) {
		msg = http.StatusText(a.Status)
	}

	return json.Marshal(MessageResponse{Message: msg})
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (s *APIServer) Routes() http.Handler {
	r := http.NewServeMux()

	r.HandleFunc("GET /api/users", makeHandler(s.HandleListUsers))
	r.HandleFunc("POST /api/users", makeHandler(s.authMiddleware(s.HandleCreateUser)))
	r.HandleFunc("PUT /api/users/{id}", makeHandler(s.authMiddleware(s.HandleUpdateUser)))
	r.HandleFunc("DELETE /api/users/{id}", makeHandler(s.authMiddleware(s.HandleDeleteUser)))

	r.HandleFunc("GET /api/posts", makeHandler(s.HandleListPosts))
	r.HandleFunc("POST /api/posts", makeHandler(s.authMiddleware(s.HandleCreatePost)))
	r.HandleFunc("PUT /api/posts/{id}", makeHandler(s.authMiddleware(s.HandleUpdatePost)))
	r.HandleFunc("DELETE /api/posts/{id}", makeHandler(s.authMiddleware(s.HandleDeletePost)))

	r.HandleFunc("POST /api/login", makeHandler(s.HandleLogin))

	return logRequests(r)
}

// Run serves until ctx is cancelled and then shuts the server down.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Routes(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting the server", "listen_addr", s.listenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down the server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

func (s *APIServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		return nil, bodyError(err)
	}

	return b, nil
}

// bodyError reports an oversized body as 413 and anything else as 400.
func bodyError(err error) *StatusError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &StatusError{Err: err, Status: http.StatusRequestEntityTooLarge}
	}

	return &StatusError{Err: fmt.Errorf("%w: %v", ErrBadRequest, err), Status: http.StatusBadRequest}
}

type APIAuthFunc func(claims *jwt.RegisteredClaims, w http.ResponseWriter, r *http.Request) error

// authMiddleware admits requests whose bearer token is in the document's token
// list. Claims are decoded when the token is one of ours; other member tokens
// pass with empty claims.
func (s *APIServer) authMiddleware(f APIAuthFunc) APIFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		auth := r.Header.Get("Authorization")

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			return &StatusError{Err: ErrUnauthorized, Status: http.StatusUnauthorized}
		}

		var member bool
		err := s.store.View(r.Context(), func(doc *Document) error {
			member = doc.HasToken(token)
			return nil
		})
		if err != nil {
			return err
		}

		if !member {
			return &StatusError{Err: ErrForbidden, Status: http.StatusForbidden}
		}

		claims, ok := VerifySessionToken(token, s.jwtSecret)
		if !ok {
			claims = &jwt.RegisteredClaims{}
		}

		return f(claims, w, r)
	}
}

type ctxKey int

const loggerKey ctxKey = iota

func requestLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := slog.Default().With("request_id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey, logger)))

		logger.Info("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
