package adminusers

type UserView struct {
	ID          int64  `bun:"id"`
	Username    string `bun:"username"`
	Email       string `bun:"email"`
	DisplayName string `bun:"display_name"`
	Role        string `bun:"role"`
	DefaultSite string `bun:"default_site"`
}

type PageData struct {
	Users        []UserView
	Status       string
	ErrorMessage string
}
