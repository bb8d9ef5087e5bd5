package store

import "time"

// ReportModel 一次验证
type ReportModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	Archive    string    `gorm:"type:varchar(512);index;not null"`
	Digest     string    `gorm:"type:varchar(128);index;not null"`
	Version    string    `gorm:"type:varchar(64);not null"`
	Passed     bool      `gorm:"not null"`
	StartedAt  time.Time `gorm:"index;not null"`
	FinishedAt time.Time `gorm:"not null"`

	Beans      []BeanModel      `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	Violations []ViolationModel `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
}

func (ReportModel) TableName() string {
	return "verification_reports"
}

// BeanModel 报告中的一个 Bean，Position 保持声明顺序
type BeanModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	ReportID string `gorm:"type:varchar(36);index;not null"`
	Position int    `gorm:"not null"`
	Name     string `gorm:"type:varchar(255);not null"`
	Kind     string `gorm:"type:varchar(32);not null"`
	Verified bool   `gorm:"not null"`
}

func (BeanModel) TableName() string {
	return "verification_beans"
}

// ViolationModel 一条违规，Position 保持触发顺序
type ViolationModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	ReportID string `gorm:"type:varchar(36);index;not null"`
	Bean     string `gorm:"type:varchar(255);not null"`
	Position int    `gorm:"not null"`
	Section  string `gorm:"type:varchar(32);index;not null"`
	Info     string `gorm:"type:varchar(512)"`
	Message  string `gorm:"type:text;not null"`
	Method   string `gorm:"type:varchar(1024)"`
}

func (ViolationModel) TableName() string {
	return "verification_violations"
}
