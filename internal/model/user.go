package model

import "time"

// User 账号；PasswordHash 只保存 bcrypt 结果
type User struct {
    ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
    Username     string    `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
    Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
    PasswordHash string    `json:"-" gorm:"column:password;type:varchar(255);not null"`
    PfpURL       string    `json:"pfp_url" gorm:"type:text"`
    Bio          string    `json:"bio" gorm:"type:text"`
    CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// ProfileData 个人主页展示字段
type ProfileData struct {
    PfpURL string `json:"pfp_url"`
    Bio    string `json:"bio"`
}
