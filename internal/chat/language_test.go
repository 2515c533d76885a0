package chat

import "testing"

func TestContainsCyrillic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "latin only", text: "What is your experience with SharePoint?", want: false},
		{name: "cyrillic only", text: "Расскажите о вашем опыте работы", want: true},
		{name: "mixed script", text: "Tell me about опыт working with Azure", want: true},
		{name: "single cyrillic char", text: "resume я", want: true},
		{name: "empty", text: "", want: false},
		{name: "digits and punctuation", text: "8/10 -- 80%!", want: false},
		{name: "other non-latin script", text: "日本語のテキスト", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := containsCyrillic(tt.text); got != tt.want {
				t.Fatalf("containsCyrillic(%q): expected %v, got %v", tt.text, tt.want, got)
			}
		})
	}
}
