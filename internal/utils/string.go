package utils

import "strings"

// TruncateString is used to keep sensitive values (phone numbers, account
// numbers) out of logs while still leaving enough to correlate.
func TruncateString(str string, borderSizeToKeep int) string {
	if len(str) <= 2*borderSizeToKeep {
		return str
	}
	return str[:borderSizeToKeep] + "..." + str[len(str)-borderSizeToKeep:]
}

func TrimAndUpper(str string) string {
	return strings.ToUpper(strings.TrimSpace(str))
}
