package services

import "regexp"

// symbolKeyRegexp matches a symbol-style key such as `:name=>`. Word
// characters follow Unicode rules so keys like `:título=>` are repaired too.
var symbolKeyRegexp = regexp.MustCompile(`:([\p{L}\p{N}_]+)=>`)

// RewriteKeys turns every `:key=>` in text into the JSON form `"key": `.
// Text that already uses quoted keys is returned unchanged.
func RewriteKeys(text string) string {
	return symbolKeyRegexp.ReplaceAllString(text, `"$1": `)
}
