package questionnaire

import (
	_ "embed"
	"sync"
)

// DefaultID identifies the embedded bank.
const DefaultID = "business-valuation"

//go:embed valuation.yaml
var defaultYAML []byte

var (
	defaultOnce sync.Once
	defaultBank Bank
	defaultErr  error
)

// Default returns the embedded question bank. It panics if the embedded file
// is invalid, which the package tests guard against.
func Default() Bank {
	defaultOnce.Do(func() {
		defaultBank, defaultErr = ParseYAML(defaultYAML)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultBank
}

// DefaultYAML returns the raw embedded document, used to seed the database.
func DefaultYAML() []byte {
	return defaultYAML
}
