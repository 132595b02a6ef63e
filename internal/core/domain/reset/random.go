package reset

// SecureRandomSource must be backed by a cryptographically secure generator.
type SecureRandomSource interface {
	Read(p []byte) (n int, err error)
}
