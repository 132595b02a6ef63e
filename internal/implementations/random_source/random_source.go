package randomsource

import "crypto/rand"

// Crypto reads from the operating system CSPRNG.
type Crypto struct{}

func NewCrypto() *Crypto {
	return &Crypto{}
}

func (c *Crypto) Read(p []byte) (int, error) {
	return rand.Read(p)
}
