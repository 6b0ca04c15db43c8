package template

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type record struct {
	Name      string   `gorm:"primaryKey"`
	Maps      []string `gorm:"serializer:json;not null"`
	Rules     []string `gorm:"serializer:json;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (record) TableName() string { return "veto_templates" }

func toRecord(t Template) record {
	return record{Name: t.Name, Maps: t.Maps, Rules: t.Rules}
}

func (r record) template() Template {
	return Template{Name: r.Name, Maps: r.Maps, Rules: r.Rules}
}

// OpenPostgres connects to dsn with gorm's own logging silenced; callers log
// store errors themselves.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&record{})
}

func (s *GormStore) Create(ctx context.Context, t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	rec := toRecord(t)
	err := s.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrTemplateExists
	}
	return err
}

func (s *GormStore) Get(ctx context.Context, name string) (Template, error) {
	var rec record
	err := s.db.WithContext(ctx).First(&rec, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Template{}, ErrTemplateNotFound
	}
	if err != nil {
		return Template{}, err
	}
	return rec.template(), nil
}

func (s *GormStore) List(ctx context.Context) ([]Template, error) {
	var recs []record
	if err := s.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]Template, len(recs))
	for i, rec := range recs {
		out[i] = rec.template()
	}
	return out, nil
}

func (s *GormStore) Update(ctx context.Context, t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	rec := toRecord(t)
	res := s.db.WithContext(ctx).
		Model(&record{}).
		Where("name = ?", t.Name).
		Select("maps", "rules").
		Updates(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Delete(&record{}, "name = ?", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
