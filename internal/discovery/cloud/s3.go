// Package cloud implements an opt-in SPDP rendezvous channel over S3 for
// deployments where multicast discovery cannot reach across subnets or
// cloud VPC boundaries (§12 supplemented feature). It is additional to,
// never a replacement for, UDP multicast SPDP.
package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/naskel/hdds/internal/discovery"
	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/logger"
)

// defaultPollInterval is used when S3RendezvousConfig.PollInterval is
// unset.
const defaultPollInterval = 10 * time.Second

// S3RendezvousConfig configures the rendezvous channel.
type S3RendezvousConfig struct {
	Bucket       string
	Prefix       string
	Region       string
	PollInterval time.Duration

	// AccessKeyID/SecretAccessKey, if both set, are used as static
	// credentials instead of the default AWS credential chain (mirrors
	// the teacher's NewS3ClientFromConfig).
	AccessKeyID     string
	SecretAccessKey string

	// Client, if non-nil, is used instead of building one from Region via
	// the default AWS credential chain — tests inject a fake here.
	Client *s3.Client
}

// S3Rendezvous PUTs this process's own SPDP payload to a well-known S3
// key and polls the same prefix for peers' payloads, feeding discovered
// ones into the same ParticipantDB.Upsert path UDP-received SPDP uses.
// The rest of discovery is transport-agnostic to where a payload came
// from (§14.4).
type S3Rendezvous struct {
	client *s3.Client
	bucket string
	prefix string
	poll   time.Duration

	db *discovery.ParticipantDB

	// etags remembers the last-seen ETag per key so Poll only pays the
	// GET cost for objects that actually changed since the last list.
	etags map[string]string
}

// NewS3Rendezvous builds the client (unless cfg.Client is already set,
// the test seam) via the default AWS credential chain scoped to
// cfg.Region, mirroring the teacher's NewS3ClientFromConfig shape; when
// both cfg.AccessKeyID and cfg.SecretAccessKey are set they are used as
// static credentials instead.
func NewS3Rendezvous(ctx context.Context, cfg S3RendezvousConfig, db *discovery.ParticipantDB) (*S3Rendezvous, error) {
	if cfg.Bucket == "" {
		return nil, herrors.New(herrors.CodeConfiguration, "cloud.NewS3Rendezvous", "bucket is required")
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	client := cfg.Client
	if client == nil {
		opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, herrors.Wrap(herrors.CodeTransport, "cloud.NewS3Rendezvous", err)
		}
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Rendezvous{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.TrimSuffix(cfg.Prefix, "/"),
		poll:   poll,
		db:     db,
		etags:  make(map[string]string),
	}, nil
}

func (r *S3Rendezvous) key(domainID uint32, p discovery.ParticipantProxy) string {
	return fmt.Sprintf("%s/domain/%d/participant/%s.spdp", r.prefix, domainID, p.GUID.Prefix.String())
}

func (r *S3Rendezvous) listPrefix(domainID uint32) string {
	return fmt.Sprintf("%s/domain/%d/participant/", r.prefix, domainID)
}

// Publish PUTs the PL_CDR-encoded SPDP payload for p under its
// domain-scoped key. The caller re-invokes Publish on the same interval
// as local SPDP announcements (lease/3) to keep the object fresh.
func (r *S3Rendezvous) Publish(ctx context.Context, domainID uint32, p discovery.ParticipantProxy) error {
	body := discovery.EncodeSPDP(p)
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(domainID, p)),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return herrors.Wrap(herrors.CodeTransport, "cloud.Publish", err)
	}
	return nil
}

// Withdraw deletes this participant's rendezvous object on graceful
// shutdown so peers don't wait out its full lease before evicting it.
func (r *S3Rendezvous) Withdraw(ctx context.Context, domainID uint32, p discovery.ParticipantProxy) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(domainID, p)),
	})
	if err != nil {
		return herrors.Wrap(herrors.CodeTransport, "cloud.Withdraw", err)
	}
	return nil
}

// Poll lists the domain's rendezvous prefix and fetches any object whose
// ETag changed since the last poll, decoding it as an SPDP payload and
// upserting it into the ParticipantDB — the same path a UDP-received
// SPDP DATA submessage takes.
func (r *S3Rendezvous) Poll(ctx context.Context, domainID uint32) error {
	prefix := r.listPrefix(domainID)
	var continuation *string
	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return herrors.Wrap(herrors.CodeTransport, "cloud.Poll", err)
		}
		for _, obj := range out.Contents {
			r.maybeFetch(ctx, aws.ToString(obj.Key), obj.ETag)
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}
	return nil
}

func (r *S3Rendezvous) maybeFetch(ctx context.Context, key string, etag *string) {
	tag := aws.ToString(etag)
	if prev, ok := r.etags[key]; ok && prev == tag {
		return
	}

	res, err := r.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(r.bucket), Key: aws.String(key)})
	if err != nil {
		logger.Warn("cloud rendezvous GET failed", logger.Key(key), logger.Err(err))
		return
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		logger.Warn("cloud rendezvous read failed", logger.Key(key), logger.Err(err))
		return
	}

	p, err := discovery.DecodeSPDP(body)
	if err != nil {
		logger.Warn("cloud rendezvous decode failed", logger.Key(key), logger.Err(err))
		return
	}

	r.etags[key] = tag
	r.db.Upsert(p)
}

// RunPoller loops Poll on the configured interval until done is closed.
func (r *S3Rendezvous) RunPoller(ctx context.Context, domainID uint32, done <-chan struct{}) {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Poll(ctx, domainID); err != nil {
				logger.Warn("cloud rendezvous poll failed", logger.Err(err))
			}
		}
	}
}

// EnsureBucketAccessible verifies the configured bucket exists and is
// reachable, mirroring the teacher's NewS3ContentStore bucket-access
// check performed once at construction time.
func (r *S3Rendezvous) EnsureBucketAccessible(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return herrors.New(herrors.CodeConfiguration, "cloud.EnsureBucketAccessible", fmt.Sprintf("bucket %q not found", r.bucket))
		}
		return herrors.Wrap(herrors.CodeTransport, "cloud.EnsureBucketAccessible", err)
	}
	return nil
}
