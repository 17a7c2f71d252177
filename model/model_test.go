package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestPostInputValidate(t *testing.T) {
	fields, err := PostInput{
		Title:       "  Hello ",
		Author:      "Ann",
		Body:        "World",
		CoverImage:  strPtr(""),
		PublishedAt: strPtr("2024-05-01T10:30"),
	}.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if fields.Title != "Hello" {
		t.Errorf("Title = %q, want %q", fields.Title, "Hello")
	}
	if fields.CoverImage != nil {
		t.Errorf("CoverImage = %q, want nil for blank input", *fields.CoverImage)
	}
	want := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	if fields.PublishedAt == nil || !fields.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", fields.PublishedAt, want)
	}
}

func TestPostInputValidateMissingFields(t *testing.T) {
	_, err := PostInput{Title: "Hello", Author: " "}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if _, ok := verr.Fields["author"]; !ok {
		t.Errorf("missing author message in %v", verr.Fields)
	}
	if _, ok := verr.Fields["body"]; !ok {
		t.Errorf("missing body message in %v", verr.Fields)
	}
	if got, want := err.Error(), "The author field is required. (and 1 more error)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPostInputValidateBadTimestamp(t *testing.T) {
	_, err := PostInput{Title: "a", Author: "b", Body: "c", PublishedAt: strPtr("yesterday")}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if got := verr.Fields["published_at"]; len(got) != 1 {
		t.Errorf("published_at messages = %v", got)
	}
}

func TestPostInputValidateTooLong(t *testing.T) {
	_, err := PostInput{Title: strings.Repeat("x", 256), Author: "b", Body: "c"}.Validate()
	if err == nil || !strings.Contains(err.Error(), "255 characters") {
		t.Errorf("err = %v, want length failure", err)
	}
}

func TestCommentInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   CommentInput
		wantErr bool
	}{
		{"valid", CommentInput{Author: "Bo", Body: "Nice"}, false},
		{"blank author", CommentInput{Author: "", Body: "Nice"}, true},
		{"blank body", CommentInput{Author: "Bo", Body: "   "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfileInputValidate(t *testing.T) {
	fields, err := ProfileInput{DisplayName: "Ann", Bio: strPtr("  "), Website: strPtr("https://example.com")}.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if fields.Bio != nil {
		t.Errorf("Bio = %q, want nil", *fields.Bio)
	}
	if fields.Website == nil || *fields.Website != "https://example.com" {
		t.Errorf("Website = %v", fields.Website)
	}

	if _, err := (ProfileInput{}).Validate(); err == nil || err.Error() != "The display name field is required." {
		t.Errorf("empty profile err = %v", err)
	}
}

func TestProfileInputMerge(t *testing.T) {
	existing := &Profile{ID: 1, DisplayName: "Ann", Bio: strPtr("Writer"), Location: strPtr("Oslo")}

	var in ProfileInput
	if err := json.Unmarshal([]byte(`{"location": null, "website": "https://ann.dev"}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.Has("bio") || !in.Has("location") {
		t.Fatalf("Has: bio=%v location=%v", in.Has("bio"), in.Has("location"))
	}
	fields, err := in.Merge(existing).Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if fields.DisplayName != "Ann" {
		t.Errorf("DisplayName = %q, want kept", fields.DisplayName)
	}
	if fields.Bio == nil || *fields.Bio != "Writer" {
		t.Errorf("Bio = %v, want kept", fields.Bio)
	}
	if fields.Location != nil {
		t.Errorf("Location = %q, want cleared", *fields.Location)
	}
	if fields.Website == nil || *fields.Website != "https://ann.dev" {
		t.Errorf("Website = %v", fields.Website)
	}

	// Without a stored profile nothing is filled in.
	if _, err := in.Merge(nil).Validate(); err == nil {
		t.Error("Merge(nil) filled display_name")
	}
	// A literal input carries every field.
	if got := (ProfileInput{DisplayName: "Bo"}).Merge(existing); got.Bio != nil {
		t.Errorf("literal input Bio = %q, want nil", *got.Bio)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 30, 15, 0, time.UTC)
	for _, in := range []string{
		"2024-05-01T10:30:15Z",
		"2024-05-01T12:30:15+02:00",
		"2024-05-01T10:30:15",
		"2024-05-01 10:30:15",
	} {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseTimestamp("05/01/2024"); err == nil {
		t.Error("ParseTimestamp accepted a US date")
	}
}
