// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

package archive

import (
	"bytes"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// SnapshotUploader ships a periodic world-state snapshot file to S3
// for disaster recovery/cold-start bootstrap, independent of the
// node's own KV store. It reads the snapshot file through mmap-go
// instead of a buffered read so a large snapshot doesn't need to be
// copied into the Go heap before upload — the kernel page cache backs
// the read directly.
type SnapshotUploader struct {
	uploader *s3manager.Uploader
	bucket   string
}

// NewSnapshotUploader builds an uploader against bucket using the
// default AWS credential chain (environment, shared config, or
// instance role).
func NewSnapshotUploader(bucket, region string) (*SnapshotUploader, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, errors.Wrap(err, "archive: new aws session")
	}
	return &SnapshotUploader{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}, nil
}

// Upload mmaps path read-only and streams it to key under the
// configured bucket.
func (u *SnapshotUploader) Upload(path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "archive: open snapshot %s", path)
	}
	defer f.Close()

	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return errors.Wrapf(err, "archive: mmap snapshot %s", path)
	}
	defer region.Unmap()

	_, err = u.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(region),
	})
	if err != nil {
		return errors.Wrapf(err, "archive: upload snapshot %s to s3://%s/%s", path, u.bucket, key)
	}
	return nil
}
