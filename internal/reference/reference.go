package reference

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

const (
	Prefix = "TB"
	// Alphabet leaves out characters that read alike on paper: 0/O, 1/I/L.
	Alphabet    = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	groupLength = 4
	groupCount  = 2
)

var (
	errGroupLength = errors.New("group length must be positive")
	errEmptySet    = errors.New("alphabet must not be empty")

	numberPattern = regexp.MustCompile(`^TB-[ABCDEFGHJKMNPQRSTUVWXYZ23456789]{4}-[ABCDEFGHJKMNPQRSTUVWXYZ23456789]{4}$`)
)

// NewBillNumber returns a random bill reference number such as TB-7KQX-M2ZD.
func NewBillNumber() (string, error) {
	groups := make([]string, 0, groupCount+1)
	groups = append(groups, Prefix)
	for index := 0; index < groupCount; index++ {
		group, err := randomGroup(groupLength, Alphabet)
		if err != nil {
			return "", err
		}
		groups = append(groups, group)
	}
	return strings.Join(groups, "-"), nil
}

// Valid reports whether value has the shape produced by NewBillNumber.
func Valid(value string) bool {
	return numberPattern.MatchString(value)
}

// randomGroup draws length characters from set without modulo bias.
func randomGroup(length int, set string) (string, error) {
	if length <= 0 {
		return "", errGroupLength
	}
	if set == "" {
		return "", errEmptySet
	}

	limit := big.NewInt(int64(len(set)))
	group := make([]byte, length)
	for index := range group {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		group[index] = set[position.Int64()]
	}
	return string(group), nil
}
