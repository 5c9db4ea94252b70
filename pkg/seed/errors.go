package seed

import "errors"

var (
	ErrUnknownSeeder   = errors.New("seed: unknown seeder")
	ErrDuplicateSeeder = errors.New("seed: duplicate seeder name")
	ErrFixture         = errors.New("seed: invalid fixture")
)
