package models

type Timeline struct {
	BaseModel
	Name string `json:"timelineName" gorm:"type:varchar(255);uniqueIndex;not null"`
}

func (Timeline) TableName() string {
	return "timelines"
}
