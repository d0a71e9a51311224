package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ WindowStore = (*RedisStore)(nil)

// hitScript увеличивает счетчик окна и ставит срок жизни ключу без TTL.
// Возвращает {счетчик, оставшиеся миллисекунды}. Работает на любых версиях Redis со скриптами.
var hitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore хранит окна в Redis, чтобы несколько экземпляров сервера делили один счетчик.
type RedisStore struct {
	client redis.UniversalClient
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisStore создает хранилище окон. Ключи имеют вид <prefix><адрес>.
func NewRedisStore(client redis.UniversalClient, window time.Duration, prefix string) *RedisStore {
	return &RedisStore{client: client, window: window, prefix: prefix, now: time.Now}
}

// Hit атомарно учитывает попадание: скрипт выполняется в Redis целиком.
func (s *RedisStore) Hit(ctx context.Context, key string) (Window, error) {
	res, err := hitScript.Run(ctx, s.client, []string{s.prefix + key}, s.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("ошибка обновления окна в Redis: %w", err)
	}
	if len(res) != 2 {
		return Window{}, errors.New("неожиданный ответ скрипта окна Redis")
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl <= 0 {
		ttl = s.window
	}
	return Window{Count: res[0], ResetAt: s.now().Add(ttl)}, nil
}
