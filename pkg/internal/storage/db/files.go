package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/mediavault/pkg/internal/model"
	"github.com/yeisme/mediavault/pkg/internal/types"
)

// Files 附件记录的访问层，错误统一映射为 DatabaseError 或 NotFound.
type Files struct {
	db *gorm.DB
}

// NewFiles 创建附件记录访问层.
func NewFiles(c *Client) *Files {
	return &Files{db: c.DB}
}

// Insert 插入新记录.
func (s *Files) Insert(ctx context.Context, f *model.File) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return types.NewError(types.KindDatabaseError, fmt.Errorf("insert %s: %w", f.ID, err))
	}

	return nil
}

// Find 按 id 与标签查找记录；anyOf 非空时要求其中至少一个关联字段非空.
func (s *Files) Find(ctx context.Context, id, tag string, anyOf []string) (*model.File, error) {
	q := s.db.WithContext(ctx).Where("id = ? AND tag = ?", id, tag)
	if len(anyOf) > 0 {
		q = q.Where(presentClause(anyOf))
	}

	var f model.File
	if err := q.Take(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.KindNotFound, fmt.Errorf("%s/%s", tag, id))
		}

		return nil, types.NewError(types.KindDatabaseError, fmt.Errorf("find %s: %w", id, err))
	}

	return &f, nil
}

// presentClause 生成 "a IS NOT NULL OR b IS NOT NULL"，只接受已知的关联字段.
func presentClause(fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if slices.Contains(model.LinkFields, f) {
			parts = append(parts, f+" IS NOT NULL")
		}
	}

	if len(parts) == 0 {
		return "1 = 0"
	}

	return "(" + strings.Join(parts, " OR ") + ")"
}

// MarkDeleted 软删除记录.
func (s *Files) MarkDeleted(ctx context.Context, tag, id string) error {
	res := s.db.WithContext(ctx).Model(&model.File{}).
		Where("id = ? AND tag = ?", id, tag).
		Update("deleted", true)
	if res.Error != nil {
		return types.NewError(types.KindDatabaseError, fmt.Errorf("mark deleted %s: %w", id, res.Error))
	}

	if res.RowsAffected == 0 {
		return types.NewError(types.KindNotFound, fmt.Errorf("%s/%s", tag, id))
	}

	return nil
}

// Delete 物理删除记录.
func (s *Files) Delete(ctx context.Context, tag, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND tag = ?", id, tag).Delete(&model.File{})
	if res.Error != nil {
		return types.NewError(types.KindDatabaseError, fmt.Errorf("delete %s: %w", id, res.Error))
	}

	if res.RowsAffected == 0 {
		return types.NewError(types.KindNotFound, fmt.Errorf("%s/%s", tag, id))
	}

	return nil
}

// Reapable 返回 id 大于 after 的可回收记录（已删除且未被举报），按 id 升序.
func (s *Files) Reapable(ctx context.Context, after string, limit int) ([]model.File, error) {
	var files []model.File

	err := s.db.WithContext(ctx).
		Where("deleted = ?", true).
		Where("reported IS NULL OR reported = ?", false).
		Where("id > ?", after).
		Order("id").
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, types.NewError(types.KindDatabaseError, fmt.Errorf("query reapable: %w", err))
	}

	return files, nil
}

// List 按标签列出最近的记录，tag 为空时列出全部.
func (s *Files) List(ctx context.Context, tag string, limit int) ([]model.File, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if tag != "" {
		q = q.Where("tag = ?", tag)
	}

	var files []model.File
	if err := q.Find(&files).Error; err != nil {
		return nil, types.NewError(types.KindDatabaseError, fmt.Errorf("list: %w", err))
	}

	return files, nil
}

// Stats 标签维度的记录统计.
type Stats struct {
	Tag     string
	Count   int64
	Bytes   int64
	Deleted int64
}

// Stats 汇总每个标签的记录数、字节数与待回收数.
func (s *Files) Stats(ctx context.Context) ([]Stats, error) {
	var out []Stats

	err := s.db.WithContext(ctx).Model(&model.File{}).
		Select("tag, COUNT(*) AS count, COALESCE(SUM(size), 0) AS bytes, " +
			"SUM(CASE WHEN deleted = ? THEN 1 ELSE 0 END) AS deleted", true).
		Group("tag").
		Order("tag").
		Scan(&out).Error
	if err != nil {
		return nil, types.NewError(types.KindDatabaseError, fmt.Errorf("stats: %w", err))
	}

	return out, nil
}
