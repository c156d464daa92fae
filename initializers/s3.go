package initializers

import (
	"context"

	log "github.com/sirupsen/logrus"

	s3client "approval-flow-backend/s3"
)

func InitS3() {
	minioClient, err := s3client.NewClient()
	if err != nil {
		log.WithError(err).Error("failed to initialize S3 client")
		return
	}
	if err = s3client.EnsureBucket(context.Background(), minioClient); err != nil {
		log.WithError(err).Error("failed to ensure attachment bucket")
	}
	s3client.Client = minioClient
	log.Info("S3 client initialized")
}
