package chat

// containsCyrillic reports whether the text holds at least one character in
// the Cyrillic range. Presence-based, not majority-based: a single Cyrillic
// character in mixed-script input selects the Russian register.
func containsCyrillic(text string) bool {
	for _, r := range text {
		if r >= 0x0400 && r <= 0x04FF {
			return true
		}
	}
	return false
}
