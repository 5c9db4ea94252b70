package db

import "context"

// Shutdown returns a hook that closes the pool. Use with pype.WithShutdownHook().
//
// Example:
//
//	app := pype.New(
//	    pype.WithShutdownHook(db.Shutdown(conn)),
//	)
func Shutdown(conn *Connection) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return conn.Close()
	}
}
