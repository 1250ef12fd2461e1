package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/safecert/whitecard-trainer/internal/store"
)

// LoginHandler exchanges email+password for a bearer token.
func LoginHandler(a *Service, users store.UserStore) http.HandlerFunc {
	type loginReq struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			http.Error(w, "email and password required", http.StatusBadRequest)
			return
		}
		u, err := users.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Email, u.FullName, u.Role)
		if err != nil {
			http.Error(w, "token issue failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": tok,
			"token_type":   "bearer",
		})
	}
}

// MeHandler returns the authenticated caller's profile.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(id)
	}
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
// The password arrives pre-hashed from configuration so plaintext never
// touches the environment.
func EnsureAdmin(ctx context.Context, users store.UserStore, email, passHash string) error {
	if email == "" || passHash == "" {
		return nil
	}
	_, err := users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	u := store.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     "Administrator",
		Role:         "admin",
		PasswordHash: passHash,
	}
	if _, err := users.CreateUser(ctx, u); err != nil {
		return err
	}
	log.Printf("auth: bootstrap admin %s created", email)
	return nil
}
