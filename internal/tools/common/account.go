package common

// GetAccountFromArgs extracts the account name from request arguments.
// It falls back to defaultAccount when the argument is missing, empty or not a string.
func GetAccountFromArgs(args map[string]interface{}, defaultAccount string) string {
	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return defaultAccount
}

// StringArg returns the string argument named key, or "" when absent.
func StringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// OptionalStringArg returns a pointer to the string argument named key.
// A nil pointer means the caller did not send the argument, which lets
// update tools tell "leave unchanged" apart from "clear".
func OptionalStringArg(args map[string]interface{}, key string) *string {
	s, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// IntArg returns the numeric argument named key as an int.
// JSON numbers arrive as float64; fallback is returned for anything else.
func IntArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// BoolArg returns the boolean argument named key, or false when absent.
func BoolArg(args map[string]interface{}, key string) bool {
	b, _ := args[key].(bool)
	return b
}
