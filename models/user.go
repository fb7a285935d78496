package models

// Stored field names. FieldID is the store-native identifier key.
const (
	FieldID       = "_id"
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
)

type UserCreate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateRequest is the POST body. A field is required to be present and
// non-null; an empty string is a valid value.
type CreateRequest struct {
	Username *string `json:"username" validate:"required"`
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// UserCreate must only be called after Validate has passed.
func (r CreateRequest) UserCreate() UserCreate {
	return UserCreate{Username: *r.Username, Email: *r.Email, Password: *r.Password}
}

// Document returns the record as it is inserted. The password is stored as
// supplied.
func (u UserCreate) Document() Document {
	return Document{
		FieldUsername: u.Username,
		FieldEmail:    u.Email,
		FieldPassword: u.Password,
	}
}

type UserUpdate struct {
	Username Optional[string] `json:"username"`
	Email    Optional[string] `json:"email"`
	Password Optional[string] `json:"password"`
}

// Fields returns every field supplied with a non-null value.
func (u UserUpdate) Fields() Document {
	fields := Document{}
	if u.Username.Present() {
		fields[FieldUsername] = u.Username.Value
	}
	if u.Email.Present() {
		fields[FieldEmail] = u.Email.Value
	}
	if u.Password.Present() {
		fields[FieldPassword] = u.Password.Value
	}
	return fields
}

type UserLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username *string `json:"username" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

func (r LoginRequest) UserLogin() UserLogin {
	return UserLogin{Username: *r.Username, Password: *r.Password}
}

// UserOutput is the API view of a stored user. The password is included.
type UserOutput struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}
