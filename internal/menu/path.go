package menu

import "strings"

// Navigation state travels between turns inside callback data: node ids
// joined by Delimiter, or RootToken for the top-level menu. The token is
// opaque to Telegram and echoed back verbatim on button press.
const (
	Delimiter = ":"
	RootToken = "ROOT"
)

// JoinPath serializes a path for callback data. The empty path serializes
// to RootToken.
func JoinPath(path []string) string {
	if len(path) == 0 {
		return RootToken
	}
	return strings.Join(path, Delimiter)
}

// SplitPath parses callback data back into a path. RootToken and the empty
// string both mean the root menu.
func SplitPath(token string) []string {
	if token == "" || token == RootToken {
		return nil
	}
	return strings.Split(token, Delimiter)
}
