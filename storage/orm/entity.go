package orm

import "time"

// Owner is a registered task owner.
type Owner struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username  string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Owner model.
func (Owner) TableName() string {
	return "owners"
}

// taskRecord is the persisted form of a task.
type taskRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Title     string    `gorm:"size:255;not null"`
	Status    string    `gorm:"size:20;not null"`
	CreatedBy int64     `gorm:"not null;index:idx_tasks_owner_created,priority:1"`
	Owner     *Owner    `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	CreatedAt time.Time `gorm:"not null;index:idx_tasks_owner_created,priority:2"`
}

// TableName returns the table name for taskRecord model.
func (taskRecord) TableName() string {
	return "tasks"
}
