package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
	"github.com/jqjjian/ad-workflow-sub001/pkg/cache"
	"github.com/jqjjian/ad-workflow-sub001/pkg/logger"
)

// dictionaryCacheTTL 字典项缓存时长，字典由运营后台维护，变更频率极低
const dictionaryCacheTTL = 10 * time.Minute

// DictionaryItemModel 字典项表，按 (category, dict_key) 分组存放枚举取值
type DictionaryItemModel struct {
	ID        uint   `gorm:"primarykey"`
	Category  string `gorm:"size:64;not null;index:idx_dict_category_key"`
	DictKey   string `gorm:"size:64;not null;index:idx_dict_category_key"`
	ItemName  string `gorm:"size:128;not null"`
	ItemValue string `gorm:"size:128;not null"`
	SortOrder int    `gorm:"default:0"`
	Enabled   bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (DictionaryItemModel) TableName() string {
	return "dictionary_items"
}

// GormDictionaryService 数据库字典服务，cache 可为 nil（降级为直查）
type GormDictionaryService struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

// NewGormDictionaryService 创建字典服务
func NewGormDictionaryService(db *gorm.DB, c *cache.RedisCache) *GormDictionaryService {
	return &GormDictionaryService{db: db, cache: c}
}

// GetItems 按分类与键查询启用的字典项，按 sort_order 排序
func (s *GormDictionaryService) GetItems(ctx context.Context, category, key string) ([]domain.DictionaryItem, error) {
	cacheKey := fmt.Sprintf("workorder:dict:%s:%s", category, key)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []domain.DictionaryItem
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	var rows []DictionaryItemModel
	err := s.db.WithContext(ctx).
		Where("category = ? AND dict_key = ? AND enabled = ?", category, key, true).
		Order("sort_order asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]domain.DictionaryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.DictionaryItem{
			ItemName:  row.ItemName,
			ItemValue: row.ItemValue,
		})
	}

	if s.cache != nil && len(items) > 0 {
		if data, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), dictionaryCacheTTL); err != nil {
				logger.Warn(ctx, "Failed to cache dictionary items", "category", category, "key", key, "error", err)
			}
		}
	}
	return items, nil
}
