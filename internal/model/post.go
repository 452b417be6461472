package model

import "time"

// Post 内容主体，按作者用户名归属
type Post struct {
    ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
    Username  string    `json:"username" gorm:"type:varchar(50);index:idx_post_author_date;not null"`
    Body      string    `json:"body" gorm:"type:text;not null"`
    PostDate  time.Time `json:"post_date" gorm:"index:idx_post_author_date;not null"`
    CreatedAt time.Time `json:"created_at"`
}

func (Post) TableName() string { return "posts" }
