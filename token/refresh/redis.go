package refresh

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	rotateStatusNotFound = 0
	rotateStatusMismatch = 1
	rotateStatusRotated  = 2
)

// KEYS[1] subject key. ARGV[1] presented fingerprint, ARGV[2] next fingerprint, ARGV[3] ttl in ms.
const rotateScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 2
`

var rotateLua = redis.NewScript(rotateScript)

var _ Registry = (*RedisRegistry)(nil)

// RedisRegistry stores one key per subject holding the token fingerprint.
// Expiry is left to Redis and Rotate runs as a Lua script so it is atomic across processes.
type RedisRegistry struct {
	client  redis.UniversalClient
	prefix  string
	nowFunc func() time.Time
}

// RedisOption defines a function type to modify the RedisRegistry instance.
type RedisOption func(*RedisRegistry)

// WithRedisNowFunc sets the clock used to turn expiry times into TTLs
func WithRedisNowFunc(nowFunc func() time.Time) RedisOption {
	return func(r *RedisRegistry) {
		r.nowFunc = nowFunc
	}
}

func NewRedisRegistry(client redis.UniversalClient, prefix string, options ...RedisOption) (*RedisRegistry, error) {
	if client == nil {
		return nil, errors.New("[NewRedisRegistry] redis client is required")
	}
	if prefix == "" {
		prefix = "refresh"
	}
	r := &RedisRegistry{client: client, prefix: prefix, nowFunc: time.Now}
	for _, option := range options {
		option(r)
	}
	return r, nil
}

func (r *RedisRegistry) key(subjectID string) string {
	return r.prefix + ":" + subjectID
}

func (r *RedisRegistry) ttl(expiresAt time.Time) (time.Duration, error) {
	ttl := expiresAt.Sub(r.nowFunc())
	if ttl < time.Millisecond {
		return 0, errors.Errorf("expiry %s is in the past", expiresAt.Format(time.RFC3339))
	}
	return ttl, nil
}

func (r *RedisRegistry) Insert(ctx context.Context, subjectID, token string, expiresAt time.Time) error {
	ttl, err := r.ttl(expiresAt)
	if err != nil {
		return errors.Wrap(err, "[RedisRegistry.Insert]")
	}
	if err := r.client.Set(ctx, r.key(subjectID), Fingerprint(token), ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisRegistry.Insert] set")
	}
	return nil
}

func (r *RedisRegistry) Validate(ctx context.Context, subjectID, token string) error {
	current, err := r.client.Get(ctx, r.key(subjectID)).Result()
	if stderrors.Is(err, redis.Nil) {
		return ErrTokenRevoked
	}
	if err != nil {
		return errors.Wrap(err, "[RedisRegistry.Validate] get")
	}
	if !fingerprintsEqual(current, Fingerprint(token)) {
		return ErrTokenMismatch
	}
	return nil
}

func (r *RedisRegistry) Rotate(ctx context.Context, subjectID, presented, next string, expiresAt time.Time) error {
	ttl, err := r.ttl(expiresAt)
	if err != nil {
		return errors.Wrap(err, "[RedisRegistry.Rotate]")
	}

	status, err := rotateLua.Run(ctx, r.client,
		[]string{r.key(subjectID)},
		Fingerprint(presented), Fingerprint(next), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return errors.Wrap(err, "[RedisRegistry.Rotate] script")
	}

	switch status {
	case rotateStatusRotated:
		return nil
	case rotateStatusNotFound:
		return ErrTokenRevoked
	case rotateStatusMismatch:
		return ErrTokenMismatch
	default:
		return errors.Errorf("[RedisRegistry.Rotate] unexpected script status %d", status)
	}
}

func (r *RedisRegistry) Invalidate(ctx context.Context, subjectID string) error {
	if err := r.client.Del(ctx, r.key(subjectID)).Err(); err != nil {
		return errors.Wrap(err, "[RedisRegistry.Invalidate] del")
	}
	return nil
}
