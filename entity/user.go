package entity

// Role is carried in credentials but no route checks it: any authenticated
// staff member can perform any operation.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSeller       Role = "seller"
	RoleReceptionist Role = "receptionist"
)

// User is a staff account allowed to sign in.
type User struct {
	Id           int64  `json:"id" bson:"id"`
	Username     string `json:"username" bson:"username"`
	PasswordHash string `json:"-" bson:"password_hash"`
	Role         Role   `json:"role" bson:"role"`
}

// Public strips everything a client must not see.
func (u *User) Public() *UserInfo {
	return &UserInfo{
		Id:       u.Id,
		Username: u.Username,
		Role:     u.Role,
	}
}

// UserInfo is the identity embedded in credentials and returned on login.
type UserInfo struct {
	Id       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	User         *UserInfo `json:"user"`
}
