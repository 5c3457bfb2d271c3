package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog"

	"gohtlcbridge/types"
)

// Store is the Redis-backed OrderStore. Each order lives as a JSON blob
// under swaporder:<id>, with one index SET per status so the monitor
// can list active orders without scanning the keyspace, and never loses
// an in-flight HTLC to a process restart.
type Store struct {
	pool *redis.Pool
	log  zerolog.Logger
}

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func NewStore(host string, port int, log zerolog.Logger) *Store {
	redisAddr := fmt.Sprintf("%s:%d", host, port)
	return &Store{
		pool: &redis.Pool{
			MaxIdle: 5,
			Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
		},
		log: log.With().Str("component", "redis_store").Logger(),
	}
}

// Ping verifies connectivity; without persistence the bridge must not
// start.
func (s *Store) Ping() error {
	conn := s.pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	return err
}

func orderKey(id string) string {
	return fmt.Sprintf("swaporder:%s", id)
}

func statusSetKey(status types.OrderStatus) string {
	return fmt.Sprintf("swaporders:%s", status)
}

func (s *Store) GetOrder(id string) (*types.SwapOrder, error) {
	conn := s.pool.Get()
	defer conn.Close()

	return s.getOrderConn(conn, id)
}

func (s *Store) getOrderConn(conn redis.Conn, id string) (*types.SwapOrder, error) {
	raw, err := redis.Bytes(conn.Do("GET", orderKey(id)))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		s.log.Error().Err(err).Msg("error Redis GET")
		return nil, err
	}

	var order types.SwapOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("cannot unmarshal swap order %s: %w", id, err)
	}
	return &order, nil
}

func (s *Store) PutOrder(order *types.SwapOrder) error {
	if order == nil || order.ID == "" {
		return errors.New("null or unidentified order to store")
	}
	if order.Status == "" {
		return errors.New("order cannot have empty status")
	}

	conn := s.pool.Get()
	defer conn.Close()

	// move between status index sets when the status changed
	prev, err := s.getOrderConn(conn, order.ID)
	if err != nil {
		return err
	}

	orderJSON, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("cannot marshal swap order to JSON: %w", err)
	}

	if _, err := conn.Do("SET", orderKey(order.ID), orderJSON); err != nil {
		s.log.Error().Err(err).Msg("error Redis SET")
		return err
	}

	if prev != nil && prev.Status != order.Status {
		if _, err := conn.Do("SREM", statusSetKey(prev.Status), order.ID); err != nil {
			s.log.Error().Err(err).Msg("error Redis SREM")
			return err
		}
	}

	if _, err := conn.Do("SADD", statusSetKey(order.Status), order.ID); err != nil {
		s.log.Error().Err(err).Msg("error Redis SADD")
		return err
	}

	return nil
}

func (s *Store) ListByStatus(status types.OrderStatus) ([]*types.SwapOrder, error) {
	conn := s.pool.Get()
	defer conn.Close()

	return s.scanStatusSet(conn, status, func(o *types.SwapOrder) bool { return o.Status == status })
}

// ListByRecipient scans every status set; recipients are few per
// deployment and terminal sets dominate, so O(n) is acceptable here the
// same way it was for the source-tx lookups this scheme started from.
func (s *Store) ListByRecipient(recipient string) ([]*types.SwapOrder, error) {
	conn := s.pool.Get()
	defer conn.Close()

	match := strings.ToLower(recipient)
	orders := make([]*types.SwapOrder, 0)
	for _, status := range types.AllStatuses {
		found, err := s.scanStatusSet(conn, status, func(o *types.SwapOrder) bool {
			return strings.ToLower(o.Recipient) == match
		})
		if err != nil {
			return nil, err
		}
		orders = append(orders, found...)
	}
	return orders, nil
}

func (s *Store) scanStatusSet(conn redis.Conn, status types.OrderStatus, keep func(*types.SwapOrder) bool) ([]*types.SwapOrder, error) {
	orders := make([]*types.SwapOrder, 0)

	var cursor int64
	for {
		values, err := redis.Values(conn.Do("SSCAN", statusSetKey(status), cursor))
		if err != nil {
			return nil, err
		}

		var ids []string
		if _, err = redis.Scan(values, &cursor, &ids); err != nil {
			return nil, err
		}

		for _, id := range ids {
			order, err := s.getOrderConn(conn, id)
			if err != nil {
				return nil, err
			}
			if order == nil {
				// index entry without a blob, clean it up
				conn.Do("SREM", statusSetKey(status), id)
				continue
			}
			if keep(order) {
				orders = append(orders, order)
			}
		}

		if cursor == 0 {
			break
		}
	}

	return orders, nil
}
