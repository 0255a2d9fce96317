package port

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// AccessTokenIssuer mints signed access tokens for a subject. Kept as a seam
// so the signing scheme can be swapped without touching the auth service.
type AccessTokenIssuer interface {
	Issue(subject string) (string, error)
}
