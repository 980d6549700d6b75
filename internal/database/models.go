package database

import (
	"time"

	"gorm.io/gorm"
)

// User 表示系统中的账号信息。Role 取值为 APPLICANT 或 RECRUITER。
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
	Name         string `gorm:"size:64"`
	Age          int
	Gender       string   `gorm:"size:16"`
	Role         string   `gorm:"size:32;default:APPLICANT"`
	ProfileImage string   `gorm:"size:512"`
	Resumes      []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Resume 表示求职者提交的简历。State 为招聘流程中的当前阶段。
type Resume struct {
	gorm.Model
	UserID    uint   `gorm:"index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Title     string `gorm:"size:255"`
	Introduce string `gorm:"type:text"`
	State     string `gorm:"size:32;default:APPLY"`
	PdfURL    string `gorm:"size:512"`
}

// ResumeHistory 表示一次状态变更的审计记录。
// 只追加：写入后不再更新或删除，简历被删除后记录仍然保留。
type ResumeHistory struct {
	ID          uint `gorm:"primarykey"`
	ResumeID    uint `gorm:"index"`
	RecruiterID uint
	Recruiter   User   `gorm:"foreignKey:RecruiterID"`
	OldState    string `gorm:"size:32"`
	NewState    string `gorm:"size:32"`
	Reason      string `gorm:"type:text"`
	CreatedAt   time.Time
}
