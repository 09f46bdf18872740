package model

type User struct {
	BaseModel
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
}

func (User) TableName() string {
	return "users"
}
