package dbmodels

// FileAttachment is the locator row of one uploaded supporting file.
// The bytes live in the blob store; the engine keeps only the object
// key and enough context for the signature precondition check.
type FileAttachment struct {
	BaseModel
	RequestID   string `gorm:"type:varchar(36);index"`
	StageID     string `gorm:"type:varchar(36);index:idx_stage_actor"`
	ActorID     string `gorm:"type:varchar(36);index:idx_stage_actor"`
	Name        string `gorm:"type:varchar(255)"`
	ContentType string `gorm:"type:varchar(100)"`
	ObjectKey   string `gorm:"type:varchar(512)"`
	Size        int64
}
