package resume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
)

// Repository 定义简历与状态历史的持久化原语。
// Transition 是唯一的复合写入，必须在单个事务内完成。
type Repository interface {
	Create(ctx context.Context, ownerID uint, title, introduce string) (database.Resume, error)
	FindOne(ctx context.Context, filter DetailFilter) (database.Resume, error)
	FindMany(ctx context.Context, filter ListFilter, sortDir string) ([]database.Resume, error)
	UpdateFields(ctx context.Context, filter DetailFilter, fields map[string]any) (database.Resume, error)
	Delete(ctx context.Context, filter DetailFilter) (uint, error)
	Transition(ctx context.Context, recruiterID, resumeID uint, newState State, reason string) (database.ResumeHistory, error)
	History(ctx context.Context, resumeID uint) ([]database.ResumeHistory, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository 基于 GORM 构造 Repository。
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, ownerID uint, title, introduce string) (database.Resume, error) {
	record := database.Resume{
		UserID:    ownerID,
		Title:     title,
		Introduce: introduce,
		State:     string(StateApply),
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return database.Resume{}, fmt.Errorf("create resume: %w", err)
	}
	return record, nil
}

func (r *gormRepository) FindOne(ctx context.Context, filter DetailFilter) (database.Resume, error) {
	var record database.Resume
	err := applyDetailFilter(r.db.WithContext(ctx).Preload("User"), filter).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.Resume{}, ErrResumeNotFound
		}
		return database.Resume{}, fmt.Errorf("find resume: %w", err)
	}
	return record, nil
}

func (r *gormRepository) FindMany(ctx context.Context, filter ListFilter, sortDir string) ([]database.Resume, error) {
	query := r.db.WithContext(ctx).Preload("User")
	if filter.OwnerID != nil {
		query = query.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", string(*filter.State))
	}

	var records []database.Resume
	if err := query.Order("created_at " + NormalizeSort(sortDir)).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return records, nil
}

func (r *gormRepository) UpdateFields(ctx context.Context, filter DetailFilter, fields map[string]any) (database.Resume, error) {
	var record database.Resume
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyDetailFilter(tx, filter).First(&record).Error; err != nil {
			return err
		}
		if err := tx.Model(&record).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&record, record.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.Resume{}, ErrResumeNotFound
		}
		return database.Resume{}, fmt.Errorf("update resume: %w", err)
	}
	return record, nil
}

func (r *gormRepository) Delete(ctx context.Context, filter DetailFilter) (uint, error) {
	var record database.Resume
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyDetailFilter(tx, filter).First(&record).Error; err != nil {
			return err
		}
		return tx.Delete(&database.Resume{}, record.ID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrResumeNotFound
		}
		return 0, fmt.Errorf("delete resume: %w", err)
	}
	return record.ID, nil
}

// Transition 在单个事务内更新简历阶段并追加一条历史记录。
// 简历行先加行锁再读取 oldState，并发流转在此串行化；
// 任一写入失败则整体回滚，不会出现只改阶段不写历史（或相反）的情况。
func (r *gormRepository) Transition(ctx context.Context, recruiterID, resumeID uint, newState State, reason string) (database.ResumeHistory, error) {
	var entry database.ResumeHistory
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := tx
		// SQLite（仅测试环境）不支持 FOR UPDATE，其单写锁本身即可串行化写入。
		if tx.Dialector.Name() != "sqlite" {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var record database.Resume
		if err := locked.First(&record, resumeID).Error; err != nil {
			return err
		}

		if err := tx.Model(&database.Resume{}).
			Where("id = ?", record.ID).
			Update("state", string(newState)).Error; err != nil {
			return err
		}

		entry = database.ResumeHistory{
			ResumeID:    record.ID,
			RecruiterID: recruiterID,
			OldState:    record.State,
			NewState:    string(newState),
			Reason:      reason,
		}
		return tx.Create(&entry).Error
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.ResumeHistory{}, ErrResumeNotFound
		}
		return database.ResumeHistory{}, fmt.Errorf("transition resume state: %w", err)
	}
	return entry, nil
}

func (r *gormRepository) History(ctx context.Context, resumeID uint) ([]database.ResumeHistory, error) {
	var entries []database.ResumeHistory
	err := r.db.WithContext(ctx).
		Preload("Recruiter").
		Where("resume_id = ?", resumeID).
		Order("created_at desc").
		Order("id desc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list resume history: %w", err)
	}
	return entries, nil
}

func applyDetailFilter(query *gorm.DB, filter DetailFilter) *gorm.DB {
	query = query.Where("id = ?", filter.ResumeID)
	if filter.OwnerID != nil {
		query = query.Where("user_id = ?", *filter.OwnerID)
	}
	return query
}
