package models

// Sport is an activity category
type Sport struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// User is the owner of activities
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Timezone string `json:"timezone,omitempty"`
}
