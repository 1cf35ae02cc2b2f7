package driven

// PasswordHasher is the one-way hashing collaborator used for the master passcode.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)

	// Matches reports whether plaintext hashes to hash. Comparison is
	// constant-time with respect to the candidate.
	Matches(hash, plaintext string) bool
}
