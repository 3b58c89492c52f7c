package auth

import (
	"github.com/fanscosa/cosa-web/internal/domain/result"
	"github.com/fanscosa/cosa-web/internal/domain/setting"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `form:"email" json:"email" validate:"required,emailbasic"`
	Password string `form:"password" json:"password" validate:"required" trim:"false"`
	Remember bool   `form:"remember" json:"-"`
}

// Shell is what every dashboard page shows around its content: the signed-in
// user, their role, the new-result notifications and the hospital name.
type Shell struct {
	UserID        int
	UserName      string
	Email         string
	RoleName      string
	Notifications result.Notifications
	Setting       *setting.Setting
	Warnings      []string
}
