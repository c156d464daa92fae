package attachmenthandler

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"approval-flow-backend/config"
	"approval-flow-backend/db"
	"approval-flow-backend/lib/access"
	attachmentstore "approval-flow-backend/lib/attachment/store"
	"approval-flow-backend/lib/audit"
	requeststore "approval-flow-backend/lib/request/store"
	"approval-flow-backend/models"
	attachmentapimodels "approval-flow-backend/models/api/attachment"
	dbmodels "approval-flow-backend/models/db"
	s3client "approval-flow-backend/s3"
)

// Provider stores supporting files: bytes in the blob store, locator
// rows in the database. An upload bound to a stage is what satisfies
// the signature precondition on approval.
type Provider interface {
	Upload(ctx context.Context, requestID, stageID string, principal models.Principal, fileName, contentType string, fileReader io.Reader, size int64) (view attachmentapimodels.AttachmentView, err error)
	Download(ctx context.Context, id string, principal models.Principal) (rec *dbmodels.FileAttachment, body io.ReadCloser, err error)
	PresignedURL(ctx context.Context, id string, principal models.Principal, expiry time.Duration) (link string, err error)
	ListByRequest(requestID string, principal models.Principal) (list []attachmentapimodels.AttachmentView, err error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		db:     db.DB,
		s3:     s3client.Client,
		bucket: config.Conf.S3.BucketName,
	}
}

type impl struct {
	db     *gorm.DB
	s3     *minio.Client
	bucket string
}

func (i impl) getVisibleRequest(requestID string, principal models.Principal) (*dbmodels.Request, error) {
	rec, err := requeststore.NewInstance(i.db).GetByID(requestID)
	if err != nil {
		return nil, models.ErrStorage(err, "request lookup failed")
	}
	if rec == nil {
		return nil, models.ErrNotFound("request %v not found", requestID)
	}
	ok, reason := access.CanView(*rec, rec.Stages, principal)
	if !ok {
		return nil, models.ErrUnauthorized("%s", reason)
	}
	return rec, nil
}

func (i impl) Upload(ctx context.Context, requestID, stageID string, principal models.Principal, fileName, contentType string, fileReader io.Reader, size int64) (attachmentapimodels.AttachmentView, error) {
	logger := log.
		WithField("request_id", requestID).
		WithField("user_id", principal.ID).
		WithField("file_name", fileName)
	if fileName == "" {
		return attachmentapimodels.AttachmentView{}, models.ErrPreconditionFailed("file name is required")
	}
	rec, err := i.getVisibleRequest(requestID, principal)
	if err != nil {
		return attachmentapimodels.AttachmentView{}, err
	}
	if rec.Status.IsTerminal() {
		return attachmentapimodels.AttachmentView{}, models.ErrInvalidState("request is %v, uploads are closed", rec.Status)
	}
	if stageID != "" {
		found := false
		for _, stage := range rec.Stages {
			if stage.ID == stageID {
				found = true
				break
			}
		}
		if !found {
			return attachmentapimodels.AttachmentView{}, models.ErrNotFound("stage %v not found on request %v", stageID, requestID)
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey := fmt.Sprintf("%s/%s_%s", requestID, uuid.NewString(), fileName)
	_, err = i.s3.PutObject(ctx, i.bucket, objectKey, fileReader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return attachmentapimodels.AttachmentView{}, models.ErrStorage(err, "file upload failed")
	}
	attachment := dbmodels.FileAttachment{
		RequestID:   requestID,
		StageID:     stageID,
		ActorID:     principal.ID,
		Name:        fileName,
		ContentType: contentType,
		ObjectKey:   objectKey,
		Size:        size,
	}
	err = i.db.Transaction(func(tx *gorm.DB) error {
		id, err := attachmentstore.NewInstance(tx).Create(attachment)
		if err != nil {
			return models.ErrStorage(err, "attachment create failed")
		}
		attachment.ID = id
		audit.NewHandlerWithTx(tx).Log(models.AuditEntityFile, id,
			models.AuditActionUploaded,
			fmt.Sprintf("file %q attached to request %v", fileName, rec.SeqNumber), principal)
		return nil
	})
	if err != nil {
		// best effort: the locator row failed, drop the orphan object
		if rmErr := i.s3.RemoveObject(ctx, i.bucket, objectKey, minio.RemoveObjectOptions{}); rmErr != nil {
			logger.WithError(rmErr).Error("orphan object cleanup failed")
		}
		return attachmentapimodels.AttachmentView{}, err
	}
	logger.Info("file uploaded")
	return attachmentapimodels.AttachmentConvert(attachment), nil
}

func (i impl) getAttachment(id string, principal models.Principal) (*dbmodels.FileAttachment, error) {
	rec, err := attachmentstore.NewInstance(i.db).GetByID(id)
	if err != nil {
		return nil, models.ErrStorage(err, "attachment lookup failed")
	}
	if rec == nil {
		return nil, models.ErrNotFound("attachment %v not found", id)
	}
	if _, err := i.getVisibleRequest(rec.RequestID, principal); err != nil {
		return nil, err
	}
	return rec, nil
}

func (i impl) Download(ctx context.Context, id string, principal models.Principal) (*dbmodels.FileAttachment, io.ReadCloser, error) {
	rec, err := i.getAttachment(id, principal)
	if err != nil {
		return nil, nil, err
	}
	object, err := i.s3.GetObject(ctx, i.bucket, rec.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, models.ErrStorage(err, "file download failed")
	}
	return rec, object, nil
}

func (i impl) PresignedURL(ctx context.Context, id string, principal models.Principal, expiry time.Duration) (string, error) {
	rec, err := i.getAttachment(id, principal)
	if err != nil {
		return "", err
	}
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
	link, err := i.s3.PresignedGetObject(ctx, i.bucket, rec.ObjectKey, expiry, reqParams)
	if err != nil {
		return "", models.ErrStorage(err, "presign failed")
	}
	return link.String(), nil
}

func (i impl) ListByRequest(requestID string, principal models.Principal) ([]attachmentapimodels.AttachmentView, error) {
	if _, err := i.getVisibleRequest(requestID, principal); err != nil {
		return nil, err
	}
	recs, err := attachmentstore.NewInstance(i.db).ListByRequest(requestID)
	if err != nil {
		return nil, models.ErrStorage(err, "attachment list failed")
	}
	list := []attachmentapimodels.AttachmentView{}
	for _, rec := range recs {
		list = append(list, attachmentapimodels.AttachmentConvert(rec))
	}
	return list, nil
}
