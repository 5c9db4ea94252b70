// Package auth verifies credentials stored in a database table and manages
// remember-me tokens.
//
// A [Guard] works on any table with an email and a bcrypt password column:
//
//	guard := auth.New(db)                                  // users table
//	admins := auth.New(db, auth.WithTable("admins"))
//
//	user, err := guard.Attempt(ctx, email, password)
//	if errors.Is(err, auth.ErrInvalidCredentials) { ... }
//	err = c.AuthenticateSession(user.String("id"))
//
// Remember-me tokens are stored hashed in remember_me_tokens (see
// [Guard.Migration]). [Guard.ResolveRememberToken] has the signature
// middlewares.WithRememberMe expects.
package auth
