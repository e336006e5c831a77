package cltext

import (
	"strings"
	"unicode/utf8"
)

// Clean supprime les espaces autour et coupe à max runes (max <= 0: pas de limite)
func Clean(s string, max int) string {
	return Truncate(strings.TrimSpace(s), max)
}

// Truncate coupe à max runes sans casser un caractère multi-octets
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// CleanPtr comme Clean, nil si la chaîne est vide
func CleanPtr(s string, max int) *string {
	s = Clean(s, max)
	if s == "" {
		return nil
	}
	return &s
}
