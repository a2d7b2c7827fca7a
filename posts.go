package main

import (
	"net/http"

	"github.com/golang-jwt/jwt/v4"
)

type DeletePostResponse struct {
	Message     string `json:"message"`
	DeletedPost Post   `json:"deletedPost"`
	Posts       []Post `json:"posts"`
}

func (s *APIServer) HandleListPosts(w http.ResponseWriter, r *http.Request) error {
	var posts []Post
	err := s.store.View(r.Context(), func(doc *Document) error {
		posts = doc.ResolvedPosts()
		return nil
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, posts)
}

func (s *APIServer) HandleCreatePost(claims *jwt.RegisteredClaims, w http.ResponseWriter, r *http.Request) error {
	body, err := s.readBody(w, r)
	if err != nil {
		return err
	}

	var post Post
	err = s.store.Update(r.Context(), func(doc *Document) error {
		post, err = doc.CreatePost(body, ID(claims.Subject))
		return err
	})
	if err != nil {
		return err
	}

	requestLogger(r.Context()).Debug("Created a post", "post_id", post.ID, "user_id", post.UserID)

	return writeJSON(w, http.StatusCreated, post)
}

func (s *APIServer) HandleUpdatePost(claims *jwt.RegisteredClaims, w http.ResponseWriter, r *http.Request) error {
	body, err := s.readBody(w, r)
	if err != nil {
		return err
	}

	id := ID(r.PathValue("id"))

	var post Post
	err = s.store.Update(r.Context(), func(doc *Document) error {
		post, err = doc.UpdatePost(id, body)
		return err
	})
	if err != nil {
		return err
	}

	requestLogger(r.Context()).Debug("Updated a post", "post_id", post.ID, "actor", claims.Subject)

	return writeJSON(w, http.StatusOK, post)
}

func (s *APIServer) HandleDeletePost(claims *jwt.RegisteredClaims, w http.ResponseWriter, r *http.Request) error {
	id := ID(r.PathValue("id"))

	var resp DeletePostResponse
	err := s.store.Update(r.Context(), func(doc *Document) error {
		deleted, err := doc.DeletePost(id)
		if err != nil {
			return err
		}

		resp = DeletePostResponse{
			Message:     "Post deleted successfully",
			DeletedPost: deleted,
			Posts:       doc.ResolvedPosts(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	requestLogger(r.Context()).Debug("Deleted a post", "post_id", id, "actor", claims.Subject)

	return writeJSON(w, http.StatusOK, resp)
}
