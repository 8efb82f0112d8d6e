package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chessclass/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ObjectPutter is the part of the S3 client the backup needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BackupService snapshots the workbook file to S3 on a cron schedule.
type BackupService struct {
	client ObjectPutter
	bucket string
	path   string
	now    func() time.Time
	cron   *cron.Cron
}

// NewBackupService builds an S3 client from the AWS settings in cfg.
func NewBackupService(cfg *config.Config) (*BackupService, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	awsConfig, err := awscfg.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}
	return NewBackupServiceWithClient(s3.NewFromConfig(awsConfig), cfg.S3BucketName, cfg.WorkbookPath), nil
}

func NewBackupServiceWithClient(client ObjectPutter, bucket, path string) *BackupService {
	return &BackupService{client: client, bucket: bucket, path: path, now: time.Now}
}

// BackupKey is backups/<yyyy>/<mm>/<file>-<timestamp><ext>.
func BackupKey(path string, at time.Time) string {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("backups/%d/%02d/%s-%s%s", at.Year(), at.Month(), base, at.UTC().Format("20060102T150405Z"), ext)
}

// Run uploads one snapshot of the workbook and returns its key.
func (bs *BackupService) Run(ctx context.Context) (string, error) {
	data, err := os.ReadFile(bs.path)
	if err != nil {
		return "", errors.Wrapf(err, "read workbook %s", bs.path)
	}

	key := BackupKey(bs.path, bs.now())
	_, err = bs.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bs.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
	})
	if err != nil {
		return "", errors.Wrap(err, "upload workbook backup")
	}

	logrus.WithFields(logrus.Fields{"bucket": bs.bucket, "key": key, "bytes": len(data)}).Info("Workbook backed up")
	return key, nil
}

// Start schedules Run with a standard five-field cron spec.
func (bs *BackupService) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := bs.Run(ctx); err != nil {
			logrus.WithError(err).Error("Scheduled workbook backup failed")
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid backup schedule %q", spec)
	}
	c.Start()
	bs.cron = c
	logrus.WithField("schedule", spec).Info("Workbook backup scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running backup to finish.
func (bs *BackupService) Stop() {
	if bs.cron == nil {
		return
	}
	<-bs.cron.Stop().Done()
}
