package console

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CmdNone}},
		{"title Hello  World", Command{Kind: CmdPostField, Field: "title", Text: "Hello  World"}},
		{"cover https://example.com/x.png", Command{Kind: CmdPostField, Field: "cover_image", Text: "https://example.com/x.png"}},
		{"published 2024-05-01T09:30", Command{Kind: CmdPostField, Field: "published_at", Text: "2024-05-01T09:30"}},
		{"body", Command{Kind: CmdPostField, Field: "body"}},
		{"  save ", Command{Kind: CmdSave}},
		{"edit 4", Command{Kind: CmdEdit, ID: 4}},
		{"delete #12", Command{Kind: CmdDelete, ID: 12}},
		{"cancel", Command{Kind: CmdCancel}},
		{"comment 3 author Bo", Command{Kind: CmdCommentField, ID: 3, Field: "author", Text: "Bo"}},
		{"comment 3 body Nice post!", Command{Kind: CmdCommentField, ID: 3, Field: "body", Text: "Nice post!"}},
		{"comment 3 send", Command{Kind: CmdCommentSend, ID: 3}},
		{"uncomment 9", Command{Kind: CmdUncomment, ID: 9}},
		{"amend #9 Fixed  typo", Command{Kind: CmdAmend, ID: 9, Text: "Fixed  typo"}},
		{"profile name Product Storyteller", Command{Kind: CmdProfileField, Field: "display_name", Text: "Product Storyteller"}},
		{"profile avatar https://example.com/a.png", Command{Kind: CmdProfileField, Field: "avatar_url", Text: "https://example.com/a.png"}},
		{"profile save", Command{Kind: CmdProfileSave}},
		{"reload", Command{Kind: CmdReload}},
		{"QUIT", Command{Kind: CmdQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"frobnicate",
		"edit",
		"edit abc",
		"delete 0",
		"save now",
		"comment x author Bo",
		"comment 3 shout hi",
		"comment 3 send extra",
		"profile nickname Bo",
		"amend 9",
		"amend x text",
	} {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) succeeded", line)
		}
	}
}
