package cards

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/chacha20"
)

var (
	// ErrEmptyDeck is returned when drawing from a deck without cards.
	ErrEmptyDeck = errors.New("deck is empty")
	// ErrNotEnoughCards is returned when more cards are requested than the deck holds.
	ErrNotEnoughCards = errors.New("not enough cards in deck")
)

// GenerateDeck returns all 32 cards in internal-number order.
func GenerateDeck() []Card {
	deck := make([]Card, DeckSize)
	for i := range deck {
		deck[i] = Card(i)
	}
	return deck
}

// DefaultSource is the production randomness source.
func DefaultSource() io.Reader {
	return rand.Reader
}

// DrawRandom removes count uniformly chosen cards from deck and returns them.
// A nil src falls back to crypto/rand. On error the deck is left as it was.
func DrawRandom(deck *[]Card, count int, src io.Reader) ([]Card, error) {
	if deck == nil || len(*deck) == 0 {
		return nil, ErrEmptyDeck
	}
	if count < 0 || count > len(*deck) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughCards, count, len(*deck))
	}
	if src == nil {
		src = rand.Reader
	}

	rest := append([]Card(nil), (*deck)...)
	drawn := make([]Card, 0, count)
	for i := 0; i < count; i++ {
		n, err := rand.Int(src, big.NewInt(int64(len(rest))))
		if err != nil {
			return nil, fmt.Errorf("failed to draw card: %w", err)
		}
		idx := int(n.Int64())
		drawn = append(drawn, rest[idx])
		rest = append(rest[:idx], rest[idx+1:]...)
	}
	*deck = rest
	return drawn, nil
}

// SeededSource is a deterministic keystream used to replay deals.
// It is not safe for concurrent use; give each table its own.
type SeededSource struct {
	cipher *chacha20.Cipher
}

// NewSeededSource derives a ChaCha20 keystream from seed.
func NewSeededSource(seed uint64) *SeededSource {
	key := make([]byte, chacha20.KeySize)
	for i := 0; i < 8; i++ {
		key[i] = byte(seed >> (8 * i))
	}
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		// key and nonce sizes are constants, this cannot fail
		panic(err)
	}
	return &SeededSource{cipher: c}
}

// Read fills p with keystream bytes.
func (s *SeededSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	s.cipher.XORKeyStream(p, p)
	return len(p), nil
}
