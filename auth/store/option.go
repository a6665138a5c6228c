package store

// Option configures a Store.
type Option func(*durableStore)

// WithCipher seals every persisted entry with cipher.
func WithCipher(cipher *Cipher) Option {
	return func(s *durableStore) {
		s.cipher = cipher
	}
}
