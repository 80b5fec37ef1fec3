package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// TagList is stored as text[] on Postgres and as the same array literal in a
// text column elsewhere.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(t).Value()
}

func (t *TagList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*t = TagList(arr)
	return nil
}

func (TagList) GormDataType() string {
	return "tags"
}

func (TagList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
