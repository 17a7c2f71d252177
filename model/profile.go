package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Profile is the site owner shown in the sidebar. Only the first row is used.
type Profile struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         *string   `json:"bio"`
	Location    *string   `json:"location"`
	Website     *string   `json:"website"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileInput is the request body of PUT /profile.
type ProfileInput struct {
	DisplayName string  `json:"display_name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
	AvatarURL   *string `json:"avatar_url"`

	// present holds the keys of a decoded body. nil means every field
	// was supplied.
	present map[string]bool
}

func (in *ProfileInput) UnmarshalJSON(data []byte) error {
	type plain ProfileInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*in = ProfileInput(p)
	in.present = make(map[string]bool, len(keys))
	for k := range keys {
		in.present[k] = true
	}
	return nil
}

// Has reports whether key was part of the decoded body.
func (in ProfileInput) Has(key string) bool {
	return in.present == nil || in.present[key]
}

// Merge fills the keys missing from in with the values of existing. An
// explicit null or empty string still clears a field.
func (in ProfileInput) Merge(existing *Profile) ProfileInput {
	if existing == nil {
		return in
	}
	out := in
	if !in.Has("display_name") {
		out.DisplayName = existing.DisplayName
	}
	if !in.Has("bio") {
		out.Bio = existing.Bio
	}
	if !in.Has("location") {
		out.Location = existing.Location
	}
	if !in.Has("website") {
		out.Website = existing.Website
	}
	if !in.Has("avatar_url") {
		out.AvatarURL = existing.AvatarURL
	}
	out.present = nil
	return out
}

type ProfileFields struct {
	DisplayName string
	Bio         *string
	Location    *string
	Website     *string
	AvatarURL   *string
}

func (in ProfileInput) Validate() (ProfileFields, error) {
	v := &ValidationError{}
	v.required("display_name", in.DisplayName)
	v.maxLen("display_name", in.DisplayName, 255)

	fields := ProfileFields{
		DisplayName: strings.TrimSpace(in.DisplayName),
		Bio:         optional(in.Bio),
		Location:    optional(in.Location),
		Website:     optional(in.Website),
		AvatarURL:   optional(in.AvatarURL),
	}
	if fields.Location != nil {
		v.maxLen("location", *fields.Location, 255)
	}
	if fields.Website != nil {
		v.maxLen("website", *fields.Website, 2048)
	}
	if fields.AvatarURL != nil {
		v.maxLen("avatar_url", *fields.AvatarURL, 2048)
	}
	if err := v.Err(); err != nil {
		return ProfileFields{}, err
	}
	return fields, nil
}
