package config

import "strings"

// ReverseRouteName flips a "A - B - C" style route long name into
// "C - B - A" for the opposite direction of travel.
func ReverseRouteName(name string) string {
	parts := strings.Split(name, " - ")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " - ")
}
