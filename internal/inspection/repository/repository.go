package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified by another user")
)

// Repositories 检验管理仓库集合
type Repositories struct {
	Structure  *StructureRepository
	JobPack    *JobPackRepository
	SOW        *SOWRepository
	Library    *LibraryRepository
	Attachment *AttachmentRepository
	Report     *ReportRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Structure:  NewStructureRepository(db),
		JobPack:    NewJobPackRepository(db),
		SOW:        NewSOWRepository(db),
		Library:    NewLibraryRepository(db),
		Attachment: NewAttachmentRepository(db),
		Report:     NewReportRepository(db),
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
