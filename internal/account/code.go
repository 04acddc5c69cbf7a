package account

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/samber/oops"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

var (
	codeFloor = big.NewInt(100000)
	codeSpan  = big.NewInt(900000)
)

// CodeGenerator produces verification codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator draws codes uniformly from [100000, 999999].
type RandomCodeGenerator struct{}

// NewRandomCodeGenerator returns the crypto/rand backed generator.
func NewRandomCodeGenerator() RandomCodeGenerator {
	return RandomCodeGenerator{}
}

// Generate returns a 6 digit decimal string.
func (RandomCodeGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", oops.Code("VERIFICATION_CODE_FAILED").Wrap(err)
	}
	return fmt.Sprintf("%06d", n.Add(n, codeFloor).Int64()), nil
}

// IsWellFormedCode reports whether code is exactly CodeLength ASCII digits.
func IsWellFormedCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
