package console

import (
	"fmt"
	"strconv"
	"strings"
)

type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdPostField
	CmdSave
	CmdEdit
	CmdCancel
	CmdDelete
	CmdCommentField
	CmdCommentSend
	CmdUncomment
	CmdAmend
	CmdProfileField
	CmdProfileSave
	CmdReload
	CmdHelp
	CmdQuit
)

// Command is one parsed line of console input. Field is the JSON field
// name the client state expects.
type Command struct {
	Kind  CommandKind
	ID    int64
	Field string
	Text  string
}

var postFields = map[string]string{
	"title":     "title",
	"author":    "author",
	"body":      "body",
	"cover":     "cover_image",
	"published": "published_at",
}

var profileFields = map[string]string{
	"name":     "display_name",
	"bio":      "bio",
	"location": "location",
	"website":  "website",
	"avatar":   "avatar_url",
}

const helpText = `title|author|body|cover|published <text>   fill the post form
save                                       publish or update the post
edit <id> | cancel | delete <id>           edit, leave edit mode, delete a post
comment <post> author|body <text>          fill a comment draft
comment <post> send | uncomment <id>       send a draft, remove a comment
amend <id> <text>                          rewrite a comment's body
profile name|bio|location|website|avatar <text>, profile save
reload | help | quit`

// Parse reads one command line. Text arguments keep their inner spacing;
// an empty text clears the field.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CmdNone}, nil
	}
	verb, rest := cut(line)

	if field, ok := postFields[verb]; ok {
		return Command{Kind: CmdPostField, Field: field, Text: rest}, nil
	}

	switch verb {
	case "save":
		return noArgs(CmdSave, verb, rest)
	case "cancel":
		return noArgs(CmdCancel, verb, rest)
	case "reload":
		return noArgs(CmdReload, verb, rest)
	case "help", "?":
		return noArgs(CmdHelp, verb, rest)
	case "quit", "exit", "q":
		return noArgs(CmdQuit, verb, rest)
	case "edit":
		return withID(CmdEdit, verb, rest)
	case "delete":
		return withID(CmdDelete, verb, rest)
	case "uncomment":
		return withID(CmdUncomment, verb, rest)
	case "amend":
		return parseAmend(rest)
	case "comment":
		return parseComment(rest)
	case "profile":
		return parseProfile(rest)
	}
	return Command{}, fmt.Errorf("unknown command %q (try help)", verb)
}

func parseComment(rest string) (Command, error) {
	idText, rest := cut(rest)
	id, err := parseID(idText)
	if err != nil {
		return Command{}, fmt.Errorf("comment: %w", err)
	}
	field, text := cut(rest)
	switch field {
	case "send":
		if text != "" {
			return Command{}, fmt.Errorf("comment %d send takes no text", id)
		}
		return Command{Kind: CmdCommentSend, ID: id}, nil
	case "author", "body":
		return Command{Kind: CmdCommentField, ID: id, Field: field, Text: text}, nil
	}
	return Command{}, fmt.Errorf("comment %d: expected author, body or send", id)
}

func parseAmend(rest string) (Command, error) {
	idText, text := cut(rest)
	id, err := parseID(idText)
	if err != nil {
		return Command{}, fmt.Errorf("amend: %w", err)
	}
	if text == "" {
		return Command{}, fmt.Errorf("amend %d: expected the new comment text", id)
	}
	return Command{Kind: CmdAmend, ID: id, Text: text}, nil
}

func parseProfile(rest string) (Command, error) {
	name, text := cut(rest)
	if name == "save" && text == "" {
		return Command{Kind: CmdProfileSave}, nil
	}
	field, ok := profileFields[name]
	if !ok {
		return Command{}, fmt.Errorf("profile: unknown field %q", name)
	}
	return Command{Kind: CmdProfileField, Field: field, Text: text}, nil
}

func noArgs(kind CommandKind, verb, rest string) (Command, error) {
	if rest != "" {
		return Command{}, fmt.Errorf("%s takes no arguments", verb)
	}
	return Command{Kind: kind}, nil
}

func withID(kind CommandKind, verb, rest string) (Command, error) {
	id, err := parseID(rest)
	if err != nil {
		return Command{}, fmt.Errorf("%s: %w", verb, err)
	}
	return Command{Kind: kind, ID: id}, nil
}

func parseID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected an id, got %q", s)
	}
	return id, nil
}

// cut splits off the first word.
func cut(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	word, rest, _ = strings.Cut(s, " ")
	return strings.ToLower(word), strings.TrimSpace(rest)
}
