package main

import (
	"net/http"

	"github.com/golang-jwt/jwt/v4"
)

type DeleteUserResponse struct {
	Message     string `json:"message"`
	DeletedUser User   `json:"deletedUser"`
	Users       []User `json:"users"`
}

// HandleListUsers returns every user, or only those with the given email when
// the email query parameter is present.
func (s *APIServer) HandleListUsers(w http.ResponseWriter, r *http.Request) error {
	var users []User
	err := s.store.View(r.Context(), func(doc *Document) error {
		users = doc.Users
		if r.URL.Query().Has("email") {
			users = doc.UsersByEmail(r.URL.Query().Get("email"))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, users)
}

func (s *APIServer) HandleCreateUser(claims *jwt.RegisteredClaims, w http.ResponseWriter, r *http.Request) error {
	body, err := s.readBody(w, r)
	if err != nil {
		return err
	}

	var user User
	err = s.store.Update(r.Context(), func(doc *Document) error {
		user, err = doc.CreateUser(body)
		if err != nil {
			return err
		}

		user, err = s.protectPassword(doc, user)
		return err
	})
	if err != nil {
		return err
	}

	requestLogger(r.Context()).Debug("Created a user", "user_id", user.ID, "actor", claims.Subject)

	return writeJSON(w, http.StatusCreated, user)
}

func (s *APIServer) HandleUpdateUser(claims *jwt.RegisteredClaims, w http.ResponseWriter, r *http.Request) error {
	body, err := s.readBody(w, r)
	if err != nil {
		return err
	}

	id := ID(r.PathValue("id"))

	var user User
	err = s.store.Update(r.Context(), func(doc *Document) error {
		user, err = doc.UpdateUser(id, body)
		if err != nil {
			return err
		}

		user, err = s.protectPassword(doc, user)
		return err
	})
	if err != nil {
		return err
	}

	requestLogger(r.Context()).Debug("Updated a user", "user_id", user.ID, "actor", claims.Subject)

	return writeJSON(w, http.StatusOK, user)
}

func (s *APIServer) HandleDeleteUser(claims *jwt.RegisteredClaims, w http.ResponseWriter, r *http.Request) error {
	id := ID(r.PathValue("id"))

	var (
		resp    DeleteUserResponse
		revoked int
	)
	err := s.store.Update(r.Context(), func(doc *Document) error {
		deleted, err := doc.DeleteUser(id)
		if err != nil {
			return err
		}

		// Ids are max+1, so a later user can get this id back. Its sessions go too.
		revoked = doc.RevokeTokens(func(token string) bool {
			c, ok := VerifySessionToken(token, s.jwtSecret)
			return ok && c.Subject == string(id)
		})

		resp = DeleteUserResponse{
			Message:     "User deleted successfully",
			DeletedUser: deleted,
			Users:       doc.Users,
		}
		return nil
	})
	if err != nil {
		return err
	}

	requestLogger(r.Context()).Debug("Deleted a user", "user_id", id, "revoked_tokens", revoked, "actor", claims.Subject)

	return writeJSON(w, http.StatusOK, resp)
}

// protectPassword replaces a plaintext password with its bcrypt hash when
// password hashing is enabled.
func (s *APIServer) protectPassword(doc *Document, u User) (User, error) {
	if !s.hashPasswords || u.Password == "" || isPasswordHash(u.Password) {
		return u, nil
	}

	h, err := hashPassword(u.Password)
	if err != nil {
		return User{}, err
	}

	u.Password = h
	doc.setUser(u)

	return u, nil
}
