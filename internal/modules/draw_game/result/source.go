// Package result draws round outcomes for every draw game.
package result

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"sync"
)

// Source yields uniform integers in [0, n)
type Source interface {
	Intn(n int) int
}

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand
func NewCryptoSource() Source {
	return cryptoSource{}
}

func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("result: Intn with n <= 0")
	}
	// rejection sampling keeps the draw unbiased
	max := ^uint64(0) - (^uint64(0) % uint64(n))
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic(fmt.Sprintf("result: crypto/rand failed: %v", err))
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < max {
			return int(v % uint64(n))
		}
	}
}

// SeededSource is a reproducible Source for tests and replays
type SeededSource struct {
	mu  sync.Mutex
	rnd *mrand.Rand
}

// NewSeededSource creates a deterministic source
func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{rnd: mrand.New(mrand.NewSource(seed))}
}

func (s *SeededSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// Block is a hash-like value with its block number
type Block struct {
	Hash   string
	Number int64
}

// BlockSource provides the block used to seed the block-hash lottery
type BlockSource interface {
	LatestBlock(ctx context.Context) (Block, error)
}

// PseudoBlockSource derives 64-hex-character hashes with HMAC-SHA256 over an
// increasing block number. It stands in for a chain oracle.
type PseudoBlockSource struct {
	mu     sync.Mutex
	secret []byte
	number int64
}

// NewPseudoBlockSource creates a pseudo chain starting after startNumber
func NewPseudoBlockSource(secret string, startNumber int64) *PseudoBlockSource {
	if secret == "" {
		var buf [32]byte
		_, _ = rand.Read(buf[:])
		secret = hex.EncodeToString(buf[:])
	}
	return &PseudoBlockSource{secret: []byte(secret), number: startNumber}
}

func (p *PseudoBlockSource) LatestBlock(ctx context.Context) (Block, error) {
	if err := ctx.Err(); err != nil {
		return Block{}, err
	}
	p.mu.Lock()
	p.number++
	n := p.number
	p.mu.Unlock()

	h := hmac.New(sha256.New, p.secret)
	fmt.Fprintf(h, "block:%d", n)
	return Block{Hash: hex.EncodeToString(h.Sum(nil)), Number: n}, nil
}
