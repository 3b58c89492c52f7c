package account

import (
	"strconv"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

// Menu keys of the account views on /dashboard.
const (
	MenuList   = "account_setting"
	MenuDetail = "user_detail"
	MenuCreate = "create_account_setting"
	MenuEdit   = "edit_account_setting"
)

type Role struct {
	ID          apiclient.FlexInt `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
}

type Permission struct {
	ID          apiclient.FlexInt `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
}

type User struct {
	ID    apiclient.FlexInt `json:"id"`
	Name  string            `json:"name"`
	Email string            `json:"email"`
}

// Account is a user together with the roles and permissions granted to it,
// the shape both the list and the detail endpoint return.
type Account struct {
	User        User         `json:"user"`
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
}

// RoleName is the first role's name, or "No Role".
func (a *Account) RoleName() string {
	if len(a.Roles) == 0 || a.Roles[0].Name == "" {
		return "No Role"
	}
	return a.Roles[0].Name
}

// RoleID is the first role's id as a form value.
func (a *Account) RoleID() string {
	if len(a.Roles) == 0 {
		return ""
	}
	return strconv.Itoa(a.Roles[0].ID.Int())
}

// CreateForm registers a new user.
type CreateForm struct {
	Name     string `form:"name" json:"name" validate:"required"`
	Email    string `form:"email" json:"email" validate:"required,emailbasic"`
	Password string `form:"password" json:"password" validate:"required,min=6" trim:"false"`
	RoleID   string `form:"role_id" json:"role_id" validate:"required"`
}

// EditForm updates a user. An empty password keeps the current one.
type EditForm struct {
	Name     string `form:"name" json:"name" validate:"required"`
	Email    string `form:"email" json:"email" validate:"required,emailbasic"`
	Password string `form:"password" json:"password,omitempty" validate:"omitempty,min=6" trim:"false"`
	RoleID   string `form:"role_id" json:"role_id" validate:"required"`
}

func EditFormFrom(a *Account) EditForm {
	return EditForm{Name: a.User.Name, Email: a.User.Email, RoleID: a.RoleID()}
}
