package passwordpolicy

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"passreset/internal/core/domain/account"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	DefaultMinLength     = 8
	DefaultMaxSimilarity = 0.7
)

//go:embed common_passwords.txt
var commonPasswordsList string

var attributeSeparator = regexp.MustCompile(`\W+`)

type rule struct {
	violation account.PolicyViolation
	rule      validation.Rule
}

// Policy enforces a minimum length and rejects all-digit passwords,
// passwords resembling account attributes and the short list of most common
// passwords shipped in common_passwords.txt.
type Policy struct {
	minLength       int
	maxSimilarity   float64
	commonPasswords map[string]struct{}
}

func New(minLength int) *Policy {
	if minLength < 1 {
		panic("Minimum password length must be positive.")
	}
	return &Policy{
		minLength:       minLength,
		maxSimilarity:   DefaultMaxSimilarity,
		commonPasswords: loadCommonPasswords(commonPasswordsList),
	}
}

func (p *Policy) Validate(password account.RawPassword, attributes []string) error {
	value := string(password)
	rules := []rule{
		{
			violation: account.ViolationTooShort,
			rule: validation.By(func(interface{}) error {
				// Length rules of ozzo skip empty values.
				if len([]rune(value)) < p.minLength {
					return fmt.Errorf(
						"This password is too short. It must contain at least %d characters.",
						p.minLength,
					)
				}
				return nil
			}),
		},
		{
			violation: account.ViolationTooCommon,
			rule:      validation.By(p.notCommon),
		},
		{
			violation: account.ViolationEntirelyNumber,
			rule:      validation.By(notEntirelyNumeric),
		},
		{
			violation: account.ViolationTooSimilar,
			rule: validation.By(func(v interface{}) error {
				return p.notSimilar(v, attributes)
			}),
		},
	}

	var policyErr account.PasswordPolicyError
	for _, r := range rules {
		if err := validation.Validate(value, r.rule); err != nil {
			policyErr.Violations = append(policyErr.Violations, r.violation)
			policyErr.Messages = append(policyErr.Messages, err.Error())
		}
	}
	if len(policyErr.Violations) == 0 {
		return nil
	}
	return &policyErr
}

func (p *Policy) notCommon(value interface{}) error {
	s, _ := value.(string)
	if _, ok := p.commonPasswords[strings.ToLower(strings.TrimSpace(s))]; ok {
		return errors.New("This password is too common.")
	}
	return nil
}

func notEntirelyNumeric(value interface{}) error {
	s, _ := value.(string)
	if s != "" && is.Digit.Validate(s) == nil {
		return errors.New("This password is entirely numeric.")
	}
	return nil
}

func (p *Policy) notSimilar(value interface{}, attributes []string) error {
	s, _ := value.(string)
	password := strings.ToLower(s)
	if password == "" {
		return nil
	}
	for _, attribute := range attributes {
		attribute = strings.ToLower(attribute)
		if attribute == "" {
			continue
		}
		parts := append(attributeSeparator.Split(attribute, -1), attribute)
		for _, part := range parts {
			if part != "" && similarity(part, password) >= p.maxSimilarity {
				return errors.New("The password is too similar to the account details.")
			}
		}
	}
	return nil
}

func loadCommonPasswords(list string) map[string]struct{} {
	passwords := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(list))
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line != "" {
			passwords[line] = struct{}{}
		}
	}
	return passwords
}
