package attachmentapimodels

import (
	"time"

	dbmodels "approval-flow-backend/models/db"
)

type AttachmentView struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	StageID     string    `json:"stage_id,omitempty"`
	ActorID     string    `json:"actor_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func AttachmentConvert(rec dbmodels.FileAttachment) AttachmentView {
	return AttachmentView{
		ID:          rec.ID,
		RequestID:   rec.RequestID,
		StageID:     rec.StageID,
		ActorID:     rec.ActorID,
		Name:        rec.Name,
		ContentType: rec.ContentType,
		Size:        rec.Size,
		UploadedAt:  rec.CreatedAt,
	}
}
