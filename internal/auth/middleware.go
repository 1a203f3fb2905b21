package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CtxSubject = "caller_subject"
	CtxClaims  = "caller_claims"
)

// TokenVerifier is what the middleware needs from a Verifier. Tests swap in
// a fixed-identity implementation.
type TokenVerifier interface {
	Verify(authorization string) (*Claims, error)
}

// RequireAuth rejects anonymous and invalid callers with 401 and stores the
// verified identity in the request context.
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := v.Verify(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		c.Set(CtxSubject, claims.Subject)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through without an identity but
// still rejects tokens that are present and invalid.
func OptionalAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := v.Verify(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if claims != nil {
			c.Set(CtxSubject, claims.Subject)
			c.Set(CtxClaims, claims)
		}
		c.Next()
	}
}

// CallerSubject returns the verified subject for the request, or "" for an
// anonymous caller.
func CallerSubject(c *gin.Context) string {
	return c.GetString(CtxSubject)
}

// CallerClaims returns the full claims set stored by the middleware.
func CallerClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, ok := v.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
