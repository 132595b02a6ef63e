package common

import (
	"fmt"
	"strings"
)

type Optional[T any] struct {
	Value     T
	IsPresent bool
}

func (p *Optional[T]) String() string {
	if !p.IsPresent {
		return "[-]"
	}
	return fmt.Sprintf("[%v]", p.Value)
}

func NewOptional[T any](value T, isPresent bool) Optional[T] {
	return Optional[T]{Value: value, IsPresent: isPresent}
}

func (p Optional[T]) ValueOr(fallback T) T {
	if p.IsPresent {
		return p.Value
	}
	return fallback
}

type Email string

func NewEmail(rawEmail string) Email {
	return Email(strings.ToLower(strings.TrimSpace(rawEmail)))
}

// LocalPart returns the part before "@", or the whole address if there is none.
func (e Email) LocalPart() string {
	local, _, found := strings.Cut(string(e), "@")
	if !found {
		return string(e)
	}
	return local
}
