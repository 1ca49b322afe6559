// Package naming converts wire names from the API document into the names
// used for generated client models and their attributes.
package naming

import (
	"strings"
	"unicode"
)

var commonInitialisms = map[string]bool{
	"ACR":  true,
	"API":  true,
	"DN":   true,
	"HTTP": true,
	"ID":   true,
	"JSON": true,
	"JWKS": true,
	"JWT":  true,
	"LDAP": true,
	"OIDC": true,
	"SAML": true,
	"SCIM": true,
	"SMTP": true,
	"SQL":  true,
	"SSA":  true,
	"TLS":  true,
	"TTL":  true,
	"UI":   true,
	"URI":  true,
	"URL":  true,
	"UUID": true,
	"XML":  true,
}

// SetAdditionalInitialisms adds custom initialisms to the naming rules.
// This should be called once during initialization before any registry is built.
func SetAdditionalInitialisms(initialisms []string) {
	for _, init := range initialisms {
		commonInitialisms[strings.ToUpper(init)] = true
	}
}

// PascalCase is used for model names: "app-configuration" -> "AppConfiguration".
func PascalCase(s string) string {
	words := splitWords(s)
	var result strings.Builder
	for _, word := range words {
		upper := strings.ToUpper(word)
		if commonInitialisms[upper] {
			result.WriteString(upper)
		} else {
			result.WriteString(capitalize(word))
		}
	}
	return result.String()
}

// SnakeCase is used for model attribute names: "redirectUris" -> "redirect_uris".
func SnakeCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, "_")
}

func splitWords(s string) []string {
	var words []string
	var current strings.Builder

	for i, r := range s {
		if r == '_' || r == '-' || r == ' ' || r == '.' || r == '$' {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
			continue
		}

		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				if current.Len() > 0 {
					words = append(words, current.String())
					current.Reset()
				}
			}
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
