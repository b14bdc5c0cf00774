package entity

// UserAuth identifies the API client that authenticated a request.
type UserAuth struct {
	Name  string `json:"name" bson:"name" validate:"omitempty"`
	Token string `json:"-" bson:"token" validate:"required,min=1"`
}
