package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey int

const userContextKey contextKey = iota

// User is the identity carried by a bearer token issued by the managed auth
// service.
type User struct {
	ID   string
	Name string
}

type userClaims struct {
	jwt.RegisteredClaims
	UserMetadata struct {
		Username string `json:"username"`
	} `json:"user_metadata"`
}

var errNoJWTSecret = errors.New("no JWT secret configured")

func (s *Server) parseBearer(token string) (User, error) {
	if len(s.jwtSecret) == 0 {
		return User{}, errNoJWTSecret
	}

	claims := &userClaims{}
	if _, err := jwt.ParseWithClaims(
		token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	); err != nil {
		return User{}, err
	}

	if claims.Subject == "" {
		return User{}, errors.New("token has no subject")
	}

	return User{ID: claims.Subject, Name: claims.UserMetadata.Username}, nil
}

// authenticator attaches the User to the request context when a valid bearer
// token is sent. Anonymous requests go through, invalid tokens do not.
func (s *Server) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			response(w, http.StatusUnauthorized, errorResponse{Error: "Expected a bearer token."})
			return
		}

		user, err := s.parseBearer(token)
		if err != nil {
			log.Printf("debug: rejected bearer token: %s", err)
			response(w, http.StatusUnauthorized, errorResponse{Error: "Invalid or expired token."})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := getUser(r.Context()); !ok {
			response(w, http.StatusUnauthorized, errorResponse{Error: "You must be signed in."})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func getUser(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userContextKey).(User)
	return user, ok
}
