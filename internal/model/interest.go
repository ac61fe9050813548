package model

// Interest is a reference category a user can tag their profile with.
// Users and interests form a many-to-many relationship through the
// user_interests join table; this struct only describes the category side.
//
// The category list is reference data: seeded once at startup and never
// created or deleted by normal user flows.
type Interest struct {
	ID       int64  `json:"interest_id"`
	Category string `json:"category"`
}
