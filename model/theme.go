package model

// Theme is reference data used to tag tracks.
type Theme struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// TableName sets the GORM table name.
func (Theme) TableName() string {
	return "themes"
}
