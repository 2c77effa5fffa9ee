package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/arduino-trader/internal/domain"
)

// Mirror optionally copies snapshots and articles to an external object
// store. A disabled mirror (empty bucket) is a no-op, never a hard
// dependency.
type Mirror struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
}

// NewMirror builds a Mirror. An empty bucket disables it.
func NewMirror(ctx context.Context, bucket, region string, log zerolog.Logger) (*Mirror, error) {
	m := &Mirror{bucket: bucket, log: log.With().Str("component", "mirror").Logger()}
	if bucket == "" {
		return m, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("persistence: load aws config: %w", err)
	}
	m.client = s3.NewFromConfig(cfg)
	return m, nil
}

// Enabled reports whether a bucket was configured.
func (m *Mirror) Enabled() bool {
	return m.client != nil
}

// PutSnapshot mirrors one snapshot as a dated JSON object. Failures are
// logged, never propagated: the mirror is best-effort.
func (m *Mirror) PutSnapshot(ctx context.Context, s domain.IndexSnapshot) {
	if !m.Enabled() {
		return
	}
	key := fmt.Sprintf("snapshots/%s.json", s.AsOf.Format(time.RFC3339))
	m.put(ctx, key, s)
}

// PutArticle mirrors one article.
func (m *Mirror) PutArticle(ctx context.Context, a domain.Article) {
	if !m.Enabled() {
		return
	}
	key := fmt.Sprintf("articles/%s.json", a.ScrapedAt.Format("20060102T150405"))
	m.put(ctx, key, a)
}

func (m *Mirror) put(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("mirror marshal failed")
		return
	}
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("mirror upload failed")
	}
}
