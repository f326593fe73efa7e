package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const (
	// DefaultCodeLength is the length new codes start at.
	DefaultCodeLength = 6

	codeAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	attemptsPerLength = 10
	maxLengthSteps    = 4
)

// ErrCodeSpaceExhausted is returned when every attempt at every length collided.
var ErrCodeSpaceExhausted = errors.New("no free short code found")

// CodeChecker reports whether a code is already stored.
type CodeChecker interface {
	Exists(ctx context.Context, code Code) (bool, error)
}

// CodeGenerator draws alphanumeric codes and checks them against the store.
// After attemptsPerLength collisions at one length it moves to the next,
// up to maxLengthSteps longer than the starting length.
type CodeGenerator struct {
	store      CodeChecker
	baseLength int
	samplers   map[int]func() string
}

// NewCodeGenerator creates a generator starting at length characters.
func NewCodeGenerator(store CodeChecker, length int) (*CodeGenerator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	g := &CodeGenerator{
		store:      store,
		baseLength: length,
		samplers:   make(map[int]func() string, maxLengthSteps+1),
	}

	for l := length; l <= length+maxLengthSteps; l++ {
		sample, err := nanoid.CustomASCII(codeAlphabet, l)
		if err != nil {
			return nil, fmt.Errorf("code sampler for length %d: %w", l, err)
		}

		g.samplers[l] = sample
	}

	return g, nil
}

// Generate returns a code not present in the store at the time of the check.
// Store failures are returned as-is.
func (g *CodeGenerator) Generate(ctx context.Context) (Code, error) {
	for length := g.baseLength; length <= g.baseLength+maxLengthSteps; length++ {
		sample := g.samplers[length]

		for range attemptsPerLength {
			code := Code(sample())

			taken, err := g.store.Exists(ctx, code)
			if err != nil {
				return "", err
			}

			if !taken {
				return code, nil
			}
		}
	}

	return "", ErrCodeSpaceExhausted
}
