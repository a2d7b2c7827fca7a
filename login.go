package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

type HandleLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type HandleLoginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    PublicUser `json:"user"`
}

// maxTokenAttempts bounds regeneration when a minted token is already listed.
const maxTokenAttempts = 3

func (s *APIServer) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	var req HandleLoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes)).Decode(&req); err != nil {
		return bodyError(err)
	}

	var resp HandleLoginResponse
	err := s.store.Update(r.Context(), func(doc *Document) error {
		user, err := doc.Authenticate(req.Email, req.Password)
		if err != nil {
			return err
		}

		token, err := s.issueToken(doc, user)
		if err != nil {
			return err
		}

		doc.AddToken(token)
		resp = HandleLoginResponse{
			Message: "Login successful",
			Token:   token,
			User:    user.Public(),
		}
		return nil
	})
	if errors.Is(err, ErrInvalidCredentials) {
		return &StatusError{Err: err, Status: http.StatusUnauthorized}
	}
	if err != nil {
		return err
	}

	requestLogger(r.Context()).Info("User logged in", "user_id", resp.User.ID)

	return writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) issueToken(doc *Document, user User) (string, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		token, err := NewSessionToken(user, s.jwtSecret)
		if err != nil {
			return "", err
		}

		if !doc.HasToken(token) {
			return token, nil
		}
	}

	return "", errors.New("login: could not mint an unused token")
}
