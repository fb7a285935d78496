package models

import (
	"errors"
	"fmt"
)

// Document is a raw stored record keyed by field name.
type Document map[string]any

// ErrSerialization marks a stored document that cannot be shaped into a
// UserOutput.
var ErrSerialization = errors.New("server serialization error")

type hexIdentifier interface {
	Hex() string
}

// SerializeUser converts a stored document into its API shape, rendering the
// store identifier as a string under id.
func SerializeUser(doc Document) (UserOutput, error) {
	if doc == nil {
		return UserOutput{}, fmt.Errorf("%w: nil document", ErrSerialization)
	}

	id, err := IdentifierString(doc[FieldID])
	if err != nil {
		return UserOutput{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	out := UserOutput{ID: id}
	targets := []struct {
		field string
		dst   *string
	}{
		{FieldUsername, &out.Username},
		{FieldEmail, &out.Email},
		{FieldPassword, &out.Password},
	}
	for _, target := range targets {
		raw, ok := doc[target.field]
		if !ok {
			return UserOutput{}, fmt.Errorf("%w: field %q is missing", ErrSerialization, target.field)
		}
		value, ok := raw.(string)
		if !ok {
			return UserOutput{}, fmt.Errorf("%w: field %q is %T, not a string", ErrSerialization, target.field, raw)
		}
		*target.dst = value
	}
	return out, nil
}

// IdentifierString renders a store identifier in its string form.
func IdentifierString(id any) (string, error) {
	switch v := id.(type) {
	case nil:
		return "", errors.New("identifier is missing")
	case string:
		if v == "" {
			return "", errors.New("identifier is empty")
		}
		return v, nil
	case hexIdentifier:
		return v.Hex(), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("identifier of type %T has no string form", id)
	}
}
