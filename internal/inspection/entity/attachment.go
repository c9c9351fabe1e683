package entity

import (
	"time"
)

// Attachment 附件
type Attachment struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	SourceType  string    `json:"source_type" gorm:"size:20;not null;index:idx_attachment_source"` // platform/pipeline/component/jobpack
	SourceID    string    `json:"source_id" gorm:"size:32;not null;index:idx_attachment_source"`
	StructureID string    `json:"structure_id" gorm:"size:32;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Bucket      string    `json:"bucket" gorm:"size:64;not null"`
	ObjectPath  string    `json:"object_path" gorm:"size:500;not null"`
	URL         string    `json:"url" gorm:"size:1000"`
	ContentType string    `json:"content_type" gorm:"size:100"`
	Size        int64     `json:"size"`
	CreatedBy   string    `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// 附件来源类型
const (
	SourcePlatform  = "platform"
	SourcePipeline  = "pipeline"
	SourceComponent = "component"
	SourceJobPack   = "jobpack"
)

// ValidSourceType 判断附件来源类型是否合法
func ValidSourceType(t string) bool {
	switch t {
	case SourcePlatform, SourcePipeline, SourceComponent, SourceJobPack:
		return true
	}
	return false
}
